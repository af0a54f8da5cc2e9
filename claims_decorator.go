package identity

import "context"

// ClaimsDecorator can mutate allowed JWT claim extensions before a token is
// signed. Implementations may only touch extension fields (Scopes, Metadata)
// and must leave registered/identity claims untouched so session semantics
// stay stable.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, user *AuthUser, claims *JWTClaims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, user *AuthUser, claims *JWTClaims) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, user *AuthUser, claims *JWTClaims) error {
	if f == nil {
		return nil
	}
	return f(ctx, user, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) Decorate(context.Context, *AuthUser, *JWTClaims) error {
	return nil
}

func normalizeClaimsDecorator(d ClaimsDecorator) ClaimsDecorator {
	if d == nil {
		return noopClaimsDecorator{}
	}
	return d
}
