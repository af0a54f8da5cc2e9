package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured session claims
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	Status() string
	HasRole(role string) bool
	HasScope(scope string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID        string         `json:"uid,omitempty"`
	UserEmail  string         `json:"email,omitempty"`
	UserRole   string         `json:"role,omitempty"`
	UserStatus string         `json:"status,omitempty"`
	Scopes     []string       `json:"scopes,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"` // extension payload
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the account email
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Role returns the profile role carried by the token
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Status returns the profile status carried by the token
func (c *JWTClaims) Status() string {
	return c.UserStatus
}

// HasRole checks if the token carries a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// HasScope checks if the token carries a specific scope
func (c *JWTClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ScopeList returns the scopes carried by the token
func (c *JWTClaims) ScopeList() []string {
	return c.Scopes
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issue time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
