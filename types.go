package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds the attributes of a proof of authentication
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetEmail() string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetExpiration() *time.Time
	GetData() map[string]any
}

// CredentialStore wraps the identity provider's session primitives
type CredentialStore interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	SignUp(ctx context.Context, req SignUpRequest) (*AuthUser, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context, token string) (*AuthUser, error)
	SessionFromToken(token string) (Session, error)
}

// AuthChangeEvent describes a change in authentication state
type AuthChangeEvent struct {
	Type    AuthChangeType
	Session Session
	Seq     uint64
}

type AuthChangeType string

const (
	AuthChangeSignedIn   AuthChangeType = "signed_in"
	AuthChangeSignedOut  AuthChangeType = "signed_out"
	AuthChangeExpired    AuthChangeType = "session_expired"
	AuthChangeRegistered AuthChangeType = "registered"
)

// SessionSource is the narrow surface the session context needs from a
// concrete identity backend. Keeping it this small is what lets the
// backend be swapped without touching the context or the guard.
type SessionSource interface {
	GetSession(ctx context.Context) (Session, error)
	OnAuthStateChange(fn func(AuthChangeEvent)) (unsubscribe func())
}

// ProfileStore is a queryable collection of profile records keyed by the
// session's identity id.
type ProfileStore interface {
	FetchProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// SignUpRequest carries the attributes collected at registration time
type SignUpRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	Role         Role   `json:"user_type"`
	Organization string `json:"organization,omitempty"`
	Position     string `json:"position,omitempty"`
	Phone        string `json:"phone_number,omitempty"`
}

// LoginPayload is the shape HTTP handlers hand to the credential store
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetExtendedSession() bool
}

// Config holds identity options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetExtendedTokenDuration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
	GetSignInRoute() string
	GetInactivityTimeout() time.Duration
	GetProfileLookupTimeout() time.Duration
	GetProfileLookupRetries() int
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
