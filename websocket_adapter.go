package identity

import (
	"context"

	"github.com/goliatone/go-router"
)

// WSTokenValidator implements go-router's WSTokenValidator interface on
// top of a TokenService so WebSocket upgrades share the session tokens
// used everywhere else.
type WSTokenValidator struct {
	tokens TokenService
}

// NewWSTokenValidator creates a WebSocket token validator from the provided TokenService
func NewWSTokenValidator(tokens TokenService) *WSTokenValidator {
	return &WSTokenValidator{
		tokens: tokens,
	}
}

// Validate validates a token string and returns WebSocket-compatible auth claims
func (w *WSTokenValidator) Validate(tokenString string) (router.WSAuthClaims, error) {
	claims, err := w.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &WSAuthClaimsAdapter{claims: claims}, nil
}

// WSAuthClaimsAdapter adapts session claims to go-router's WSAuthClaims
// interface. Resource permissions derive from the role hierarchy and the
// approval status: pending and suspended accounts never get write access.
type WSAuthClaimsAdapter struct {
	claims AuthClaims
}

// Subject returns the subject claim
func (w *WSAuthClaimsAdapter) Subject() string {
	return w.claims.Subject()
}

// UserID returns the user ID
func (w *WSAuthClaimsAdapter) UserID() string {
	return w.claims.UserID()
}

// Role returns the user's role
func (w *WSAuthClaimsAdapter) Role() string {
	return w.claims.Role()
}

// CanRead reports whether the account may subscribe to resource updates
func (w *WSAuthClaimsAdapter) CanRead(resource string) bool {
	return w.approved()
}

// CanEdit reports whether the account may mutate the resource
func (w *WSAuthClaimsAdapter) CanEdit(resource string) bool {
	return w.approved() && RoleAtLeast(w.claims.Role(), RolePartner)
}

// CanCreate reports whether the account may create resources of this kind
func (w *WSAuthClaimsAdapter) CanCreate(resource string) bool {
	return w.approved() && RoleAtLeast(w.claims.Role(), RolePartner)
}

// CanDelete reports whether the account may delete the resource
func (w *WSAuthClaimsAdapter) CanDelete(resource string) bool {
	return w.approved() && w.claims.HasRole(RoleAdmin)
}

// HasRole checks if the user has a specific role
func (w *WSAuthClaimsAdapter) HasRole(role string) bool {
	return w.claims.HasRole(role)
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (w *WSAuthClaimsAdapter) IsAtLeast(minRole string) bool {
	return RoleAtLeast(w.claims.Role(), minRole)
}

func (w *WSAuthClaimsAdapter) approved() bool {
	return w.claims.Status() == StatusApproved
}

// NewWSAuthMiddleware creates a fully configured WebSocket authentication
// middleware backed by this store's token service.
func (c *Credentials) NewWSAuthMiddleware(config ...router.WSAuthConfig) router.WebSocketMiddleware {
	validator := NewWSTokenValidator(c.tokens)

	var cfg router.WSAuthConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	cfg.TokenValidator = validator

	return router.NewWSAuth(cfg)
}

// WSAuthClaimsFromContext retrieves the underlying session claims from a
// WebSocket context, when the connection was authenticated by this package.
func WSAuthClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	wsAuthClaims, ok := router.WSAuthClaimsFromContext(ctx)
	if !ok {
		return nil, false
	}

	if adapter, ok := wsAuthClaims.(*WSAuthClaimsAdapter); ok {
		return adapter.claims, true
	}

	return nil, false
}
