package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the concrete Session handed to the session context and
// mirrored into the session cache.
type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Email          string         `json:"email,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiration() *time.Time {
	return s.ExpirationDate
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// IsExpired reports whether the session's expiry timestamp passed. Sessions
// without an expiry never expire on their own.
func (s *SessionObject) IsExpired(now time.Time) bool {
	if s == nil || s.ExpirationDate == nil {
		return false
	}
	return now.After(*s.ExpirationDate)
}

// Role returns the profile role stashed in the session data, defaulting to
// participant when absent. Absence of data means least privilege, never an
// error that blocks rendering.
func (s *SessionObject) Role() Role {
	if s.Data != nil {
		if raw, ok := s.Data["role"]; ok {
			if str, ok := raw.(string); ok {
				if role, valid := ParseRole(str); valid {
					return role
				}
			}
		}
	}
	return RoleParticipant
}

// Status returns the profile status stashed in the session data, defaulting
// to pending when absent.
func (s *SessionObject) Status() Status {
	if s.Data != nil {
		if raw, ok := s.Data["status"]; ok {
			if str, ok := raw.(string); ok && str != "" {
				return Status(str)
			}
		}
	}
	return StatusPending
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s email=%s iss=%s iat=%s data=%v",
		s.UserID,
		s.Email,
		s.Issuer,
		issuedAt,
		s.Data,
	)
}

// sessionFromAuthClaims creates a SessionObject from validated claims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrTokenMalformed
	}

	data := make(map[string]any)
	data["role"] = claims.Role()
	data["status"] = claims.Status()

	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if len(jwtClaims.Metadata) > 0 {
			data["metadata"] = jwtClaims.Metadata
		}
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		UserID:         claims.UserID(),
		Email:          claims.Email(),
		Issuer:         issuerFromClaims(claims),
		Data:           data,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}

func issuerFromClaims(claims AuthClaims) string {
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if jwtClaims.RegisteredClaims.Issuer != "" {
			return jwtClaims.RegisteredClaims.Issuer
		}
	}
	return claims.Subject()
}
