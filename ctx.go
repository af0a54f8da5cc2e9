package identity

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the AuthUser in the given context
func WithContext(r context.Context, user *AuthUser) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the AuthUser from the context.
func FromContext(ctx context.Context) (*AuthUser, bool) {
	raw, ok := ctx.Value(userCtxKey).(*AuthUser)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// HasRoleInContext checks the context user's role directly
func HasRoleInContext(ctx context.Context, role Role) bool {
	user, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return user.HasRole(role)
}
