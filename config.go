package identity

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// EnvConfig implements Config from environment variables.
type EnvConfig struct {
	SigningKey            string        `env:"AUTH_SIGNING_KEY"`
	SigningMethod         string        `env:"AUTH_SIGNING_METHOD, default=HS256"`
	ContextKey            string        `env:"AUTH_CONTEXT_KEY, default=identity"`
	TokenExpiration       int           `env:"AUTH_TOKEN_EXPIRATION, default=24"`
	ExtendedTokenDuration int           `env:"AUTH_EXTENDED_TOKEN_DURATION, default=168"`
	TokenLookup           string        `env:"AUTH_TOKEN_LOOKUP, default=header:Authorization"`
	AuthScheme            string        `env:"AUTH_SCHEME, default=Bearer"`
	Issuer                string        `env:"AUTH_ISSUER, default=qiesto"`
	Audience              []string      `env:"AUTH_AUDIENCE, default=qiesto"`
	RejectedRouteKey      string        `env:"AUTH_REJECTED_ROUTE_KEY, default=rejected_route"`
	RejectedRouteDefault  string        `env:"AUTH_REJECTED_ROUTE_DEFAULT, default=/dashboard"`
	SignInRoute           string        `env:"AUTH_SIGNIN_ROUTE, default=/signin"`
	InactivityTimeout     time.Duration `env:"AUTH_INACTIVITY_TIMEOUT, default=30m"`
	ProfileLookupTimeout  time.Duration `env:"AUTH_PROFILE_LOOKUP_TIMEOUT, default=10s"`
	ProfileLookupRetries  int           `env:"AUTH_PROFILE_LOOKUP_RETRIES, default=2"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig(ctx context.Context) (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetSigningMethod() string {
	return c.SigningMethod
}

func (c *EnvConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *EnvConfig) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *EnvConfig) GetExtendedTokenDuration() int {
	return c.ExtendedTokenDuration
}

func (c *EnvConfig) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *EnvConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetAudience() []string {
	return c.Audience
}

func (c *EnvConfig) GetRejectedRouteKey() string {
	return c.RejectedRouteKey
}

func (c *EnvConfig) GetRejectedRouteDefault() string {
	return c.RejectedRouteDefault
}

func (c *EnvConfig) GetSignInRoute() string {
	return c.SignInRoute
}

func (c *EnvConfig) GetInactivityTimeout() time.Duration {
	return c.InactivityTimeout
}

func (c *EnvConfig) GetProfileLookupTimeout() time.Duration {
	return c.ProfileLookupTimeout
}

func (c *EnvConfig) GetProfileLookupRetries() int {
	return c.ProfileLookupRetries
}

var _ Config = &EnvConfig{}
