package identity

import (
	"strings"

	"github.com/goliatone/go-router"
)

// TokenExtractor pulls a raw token from the request.
type TokenExtractor func(c router.Context) (string, error)

// MiddlewareConfig controls the token middleware for API style routes.
// Navigation routes use Guard.RequireRoles instead; this middleware speaks
// status codes, not redirects.
type MiddlewareConfig struct {
	// Filter skips the middleware for matching requests.
	Filter func(router.Context) bool
	// Validator is required. Use Credentials.TokenService() or a
	// MultiTokenValidator when several issuers are accepted.
	Validator TokenValidator
	// ContextKey is where validated claims are stored in router locals.
	ContextKey string
	// TokenLookup is a comma separated list of extractor specs, e.g.
	// "header:Authorization,cookie:identity".
	TokenLookup string
	AuthScheme  string
	// Optional lets unauthenticated requests through without claims.
	Optional bool
	// TemplateUserKey, when set, mirrors the merged user into locals for
	// view rendering.
	TemplateUserKey string
	// UserProvider converts claims into the template user value. Claims
	// are used directly when unset.
	UserProvider func(AuthClaims) (any, error)
	ErrorHandler func(router.Context, error) error

	logger Logger
}

// NewMiddlewareConfig derives middleware settings from the shared Config.
func NewMiddlewareConfig(validator TokenValidator, cfg Config) MiddlewareConfig {
	return MiddlewareConfig{
		Validator:   validator,
		ContextKey:  cfg.GetContextKey(),
		TokenLookup: cfg.GetTokenLookup(),
		AuthScheme:  cfg.GetAuthScheme(),
	}
}

// WithLogger overrides the logger used by the middleware.
func (cfg MiddlewareConfig) WithLogger(logger Logger) MiddlewareConfig {
	cfg.logger = logger
	return cfg
}

// ProtectedRouteMiddleware rejects requests without a valid session token.
// Validated claims land in router locals under ContextKey and in the
// request context for downstream guard and feature gate checks.
func ProtectedRouteMiddleware(config ...MiddlewareConfig) router.MiddlewareFunc {
	cfg := defaultMiddlewareConfig(config...)
	cfg.Optional = false
	return tokenMiddleware(cfg)
}

// OptionalAuthMiddleware attaches claims when a valid token is present but
// lets anonymous requests through untouched.
func OptionalAuthMiddleware(config ...MiddlewareConfig) router.MiddlewareFunc {
	cfg := defaultMiddlewareConfig(config...)
	cfg.Optional = true
	return tokenMiddleware(cfg)
}

func tokenMiddleware(cfg MiddlewareConfig) router.MiddlewareFunc {
	extractors := tokenExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return hf(ctx)
			}

			raw, err := extractRawToken(ctx, extractors)
			if err != nil {
				if cfg.Optional {
					return hf(ctx)
				}
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.Validator.Validate(raw)
			if err != nil {
				cfg.logger.Debug("token middleware rejected request: %v", err)
				if cfg.Optional {
					return hf(ctx)
				}
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)
			ctx.SetContext(WithClaimsContext(ctx.Context(), claims))

			if cfg.TemplateUserKey != "" {
				ctx.Locals(cfg.TemplateUserKey, templateUserFromClaims(cfg, claims))
			}

			return hf(ctx)
		}
	}
}

func templateUserFromClaims(cfg MiddlewareConfig, claims AuthClaims) any {
	if cfg.UserProvider == nil {
		return claims
	}
	user, err := cfg.UserProvider(claims)
	if err != nil {
		cfg.logger.Warn("token middleware user provider failed: %v", err)
		return claims
	}
	return user
}

func defaultMiddlewareConfig(config ...MiddlewareConfig) MiddlewareConfig {
	var cfg MiddlewareConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Validator == nil {
		panic("identity: token middleware requires a TokenValidator")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "identity"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = "header:" + router.HeaderAuthorization
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if IsTokenMalformed(err) {
				return c.Status(router.StatusBadRequest).SendString(ErrTokenMalformed.Message)
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.logger == nil {
		cfg.logger = defLogger{}
	}

	return cfg
}

func extractRawToken(ctx router.Context, extractors []TokenExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	if raw == "" && err == nil {
		err = ErrTokenMalformed
	}

	return raw, err
}

// tokenExtractors parses specs like "header:Authorization,cookie:identity,query:token".
func tokenExtractors(tokenLookup, authScheme string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		source := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		case "param":
			extractors = append(extractors, tokenFromParam(name))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		}
	}

	return extractors
}

func tokenFromHeader(header, authScheme string) TokenExtractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		scheme := strings.TrimSpace(authScheme)
		l := len(scheme)
		if l == 0 {
			return "", ErrTokenMalformed
		}
		if len(a) > l+1 && strings.EqualFold(a[:l], scheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMalformed
	}
}

func tokenFromQuery(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMalformed
		}
		return token, nil
	}
}

func tokenFromParam(param string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrTokenMalformed
		}
		return token, nil
	}
}

func tokenFromCookie(name string) TokenExtractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMalformed
		}
		return token, nil
	}
}
