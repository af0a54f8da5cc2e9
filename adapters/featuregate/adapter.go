// Package identitygate derives feature gate claims from validated session
// claims so go-featuregate checks can key off the signed-in account.
package identitygate

import (
	"context"

	"github.com/goliatone/go-featuregate/gate"
	identity "github.com/qiesto/go-identity"
)

const defaultActorRefType = "user"

// ClaimsExtractor extracts session claims from context.
type ClaimsExtractor func(context.Context) (identity.AuthClaims, bool)

// RoleMapper builds role identifiers from session claims.
type RoleMapper func(claims identity.AuthClaims) []string

// ScopeMapper builds permission identifiers from session claims.
type ScopeMapper func(claims identity.AuthClaims) []string

// Option customizes ClaimsProvider behavior.
type Option func(*ClaimsProvider)

// ClaimsProvider derives feature claims from the session claims stored in
// the request context.
type ClaimsProvider struct {
	extractor   ClaimsExtractor
	roleMapper  RoleMapper
	scopeMapper ScopeMapper
}

// NewClaimsProvider builds a claims provider using the package's standard
// context accessor.
func NewClaimsProvider(opts ...Option) *ClaimsProvider {
	provider := &ClaimsProvider{
		extractor:   identity.GetClaims,
		roleMapper:  defaultRoleMapper,
		scopeMapper: defaultScopeMapper,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	if provider.extractor == nil {
		provider.extractor = identity.GetClaims
	}
	if provider.roleMapper == nil {
		provider.roleMapper = defaultRoleMapper
	}
	if provider.scopeMapper == nil {
		provider.scopeMapper = defaultScopeMapper
	}
	return provider
}

// WithClaimsExtractor overrides the session claims extractor.
func WithClaimsExtractor(extractor ClaimsExtractor) Option {
	return func(provider *ClaimsProvider) {
		if provider == nil {
			return
		}
		provider.extractor = extractor
	}
}

// WithRoleMapper overrides the default role mapper.
func WithRoleMapper(mapper RoleMapper) Option {
	return func(provider *ClaimsProvider) {
		if provider == nil {
			return
		}
		provider.roleMapper = mapper
	}
}

// WithScopeMapper overrides the default scope mapper.
func WithScopeMapper(mapper ScopeMapper) Option {
	return func(provider *ClaimsProvider) {
		if provider == nil {
			return
		}
		provider.scopeMapper = mapper
	}
}

// ClaimsFromContext implements gate.ClaimsProvider.
func (p *ClaimsProvider) ClaimsFromContext(ctx context.Context) (gate.ActorClaims, error) {
	if p == nil || p.extractor == nil {
		return gate.ActorClaims{}, nil
	}
	claims, ok := p.extractor(ctx)
	if !ok || claims == nil {
		return gate.ActorClaims{}, nil
	}
	return p.claimsFromSession(claims), nil
}

// ClaimsFromSession builds ActorClaims from session claims using defaults.
func ClaimsFromSession(claims identity.AuthClaims) gate.ActorClaims {
	provider := NewClaimsProvider()
	return provider.claimsFromSession(claims)
}

func (p *ClaimsProvider) claimsFromSession(claims identity.AuthClaims) gate.ActorClaims {
	if claims == nil {
		return gate.ActorClaims{}
	}
	subjectID := claims.UserID()
	if subjectID == "" {
		subjectID = claims.Subject()
	}
	actorClaims := gate.ActorClaims{
		SubjectID: subjectID,
	}
	if p.roleMapper != nil {
		actorClaims.Roles = p.roleMapper(claims)
	}
	if p.scopeMapper != nil {
		actorClaims.Perms = p.scopeMapper(claims)
	}
	return actorClaims
}

func defaultRoleMapper(claims identity.AuthClaims) []string {
	if claims == nil || claims.Role() == "" {
		return nil
	}
	return []string{claims.Role()}
}

// defaultScopeMapper exposes explicit token scopes as permissions. Scopes
// only appear on purpose-minted tokens, so most sessions yield none.
func defaultScopeMapper(claims identity.AuthClaims) []string {
	scoped, ok := claims.(interface{ ScopeList() []string })
	if !ok {
		return nil
	}
	scopes := scoped.ScopeList()
	if len(scopes) == 0 {
		return nil
	}
	return append([]string(nil), scopes...)
}

// ActorRefFromSession builds a gate.ActorRef from session claims.
func ActorRefFromSession(claims identity.AuthClaims) gate.ActorRef {
	if claims == nil {
		return gate.ActorRef{}
	}
	id := claims.UserID()
	if id == "" {
		id = claims.Subject()
	}
	return gate.ActorRef{
		ID:   id,
		Type: defaultActorRefType,
		Name: claims.Role(),
	}
}

// ActorRefFromContext extracts a gate.ActorRef from context.
func ActorRefFromContext(ctx context.Context) (gate.ActorRef, bool) {
	claims, ok := identity.GetClaims(ctx)
	if !ok || claims == nil {
		return gate.ActorRef{}, false
	}
	return ActorRefFromSession(claims), true
}

var _ gate.ClaimsProvider = (*ClaimsProvider)(nil)
