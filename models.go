package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the profile's platform role
type Role = string

const (
	// RoleParticipant is the default role for hackathon entrants
	RoleParticipant Role = "participant"
	// RolePartner is an organization running challenges
	RolePartner Role = "partner"
	// RoleAdmin is platform staff
	RoleAdmin Role = "admin"
)

// Status is the profile's approval status
type Status = string

const (
	// StatusPending is awaiting administrative approval
	StatusPending Status = "pending"
	// StatusApproved may access its role's dashboard
	StatusApproved Status = "approved"
	// StatusSuspended is temporarily blocked from signing in
	StatusSuspended Status = "suspended"
	// StatusArchived is terminal
	StatusArchived Status = "archived"
)

// User is the credential record backing a sign-in
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"password_hash,omitempty"`
	EmailValidated bool           `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoginAttempts  int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// Profile is the durable role/status record for a credential
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	FullName      string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	Role          Role       `bun:"user_type,notnull" json:"user_type,omitempty"`
	Status        Status     `bun:"status,notnull" json:"status,omitempty"`
	Organization  string     `bun:"organization" json:"organization,omitempty"`
	Position      string     `bun:"position" json:"position,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	SuspendedAt   *time.Time `bun:"suspended_at,nullzero" json:"suspended_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the zero value with the least privileged status
func (p *Profile) EnsureStatus() {
	if p != nil && p.Status == "" {
		p.Status = StatusPending
	}
}

const (
	// ResetRequestedStatus is the requested status
	ResetRequestedStatus = "requested"
	// ResetExpiredStatus is the expired status
	ResetExpiredStatus = "expired"
	// ResetChangedStatus is the changed status
	ResetChangedStatus = "changed"
)

// PasswordReset tracks a single-use password reset request
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_reset,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
	ResetAt       *time.Time `bun:"reset_at,nullzero" json:"reset_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// MarkPasswordAsReset builds the update record closing out a reset request
func MarkPasswordAsReset(id uuid.UUID) *PasswordReset {
	r := &PasswordReset{}
	r.ID = id
	r.Status = ResetChangedStatus
	n := time.Now()
	r.ResetAt = &n
	return r
}

// AuthUser is the merge of a Session and its Profile that readers consume.
// It is derived, never stored, and recomputed on every auth state change.
type AuthUser struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name,omitempty"`
	Role         Role       `json:"role"`
	Status       Status     `json:"status"`
	Organization string     `json:"organization,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// IsApproved reports whether the account cleared administrative review
func (u *AuthUser) IsApproved() bool {
	return u != nil && u.Status == StatusApproved
}

// HasRole checks the user's role against a candidate
func (u *AuthUser) HasRole(role Role) bool {
	return u != nil && u.Role == role
}
