package identity

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UserTracker is the slice of the user store the credential store needs
// to verify sign-ins and enforce the attempt budget.
type UserTracker interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// AccountRegistrar persists a credential row and its profile atomically
// from the caller's point of view.
type AccountRegistrar interface {
	RegisterAccount(ctx context.Context, user *User, profile *Profile) (*User, *Profile, error)
}

// MaxSignInAttempts is the number of failed attempts an account gets
// inside the attempt window before sign-in is refused outright.
var MaxSignInAttempts = 5

// AttemptWindow is the sliding window the attempt budget applies to
var AttemptWindow = "15m"

// Credentials is the concrete CredentialStore. It verifies passwords
// against the user store, mints session tokens, mirrors the session into
// the cache, and notifies auth-state-change subscribers in emission order.
type Credentials struct {
	users        UserTracker
	registrar    AccountRegistrar
	resolver     *ProfileResolver
	tokens       TokenService
	cache        SessionCache
	logger       Logger
	activitySink ActivitySink
	decorator    ClaimsDecorator

	mu        sync.Mutex
	seq       uint64
	nextSub   int
	listeners map[int]func(AuthChangeEvent)
}

var _ CredentialStore = (*Credentials)(nil)
var _ SessionSource = (*Credentials)(nil)

// NewCredentials wires the credential store from its collaborators and
// the shared Config.
func NewCredentials(users UserTracker, registrar AccountRegistrar, resolver *ProfileResolver, cfg Config) *Credentials {
	tokens := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &Credentials{
		users:        users,
		registrar:    registrar,
		resolver:     resolver,
		tokens:       tokens,
		cache:        noopSessionCache{},
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		decorator:    noopClaimsDecorator{},
		listeners:    map[int]func(AuthChangeEvent){},
	}
}

func (c *Credentials) WithLogger(logger Logger) *Credentials {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithSessionCache sets the persisted mirror for reload survival.
func (c *Credentials) WithSessionCache(cache SessionCache) *Credentials {
	c.cache = normalizeSessionCache(cache)
	return c
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (c *Credentials) WithActivitySink(sink ActivitySink) *Credentials {
	c.activitySink = normalizeActivitySink(sink)
	return c
}

// WithTokenService overrides the token service, mainly for tests that
// need a fixed clock.
func (c *Credentials) WithTokenService(tokens TokenService) *Credentials {
	if tokens != nil {
		c.tokens = tokens
	}
	return c
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching session JWTs.
func (c *Credentials) WithClaimsDecorator(decorator ClaimsDecorator) *Credentials {
	c.decorator = normalizeClaimsDecorator(decorator)
	return c
}

// TokenService returns the token service used by this store
func (c *Credentials) TokenService() TokenService {
	return c.tokens
}

// generateToken builds and signs session claims, letting the configured
// decorator enrich extension fields. A decorator that touches identity or
// registered claims fails the whole sign-in.
func (c *Credentials) generateToken(ctx context.Context, user *AuthUser) (string, error) {
	claims := newSessionClaims(c.tokens, user)
	snapshot := captureImmutableClaims(claims)

	decorator := normalizeClaimsDecorator(c.decorator)
	if err := decorator.Decorate(ctx, user, claims); err != nil {
		c.logger.Error("claims decorator failed: %v", err)
		return "", err
	}

	if err := snapshot.validate(claims); err != nil {
		c.logger.Error("claims decorator mutated immutable claims: %v", err)
		return "", err
	}

	return c.tokens.SignClaims(claims)
}

// SignIn verifies the email/password pair and returns a session token.
// Unknown email and wrong password are indistinguishable to the caller;
// once the attempt budget is spent the account is refused regardless of
// credential correctness until the window elapses.
func (c *Credentials) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			c.emitActivity(ctx, ActivityEventSignInFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"identifier": email,
				"error":      ErrInvalidCredentials.Message,
			})
			return "", ErrInvalidCredentials
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during sign-in")
	}

	if user == nil {
		return "", ErrInvalidCredentials
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, AttemptWindow)
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate attempt window")
		}
		if expired {
			user.LoginAttempts = 0
		}
	}

	if user.LoginAttempts >= MaxSignInAttempts {
		c.emitActivity(ctx, ActivityEventSignInFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"identifier": email,
			"error":      ErrRateLimited.Message,
		})
		return "", ErrRateLimited
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err2 := c.users.TrackAttemptedLogin(ctx, user); err2 != nil {
			return "", goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track sign-in attempt")
		}
		c.emitActivity(ctx, ActivityEventSignInFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"identifier": email,
			"error":      ErrInvalidCredentials.Message,
		})
		return "", ErrInvalidCredentials
	}

	profile := c.resolver.ResolveOrDefault(ctx, user.ID)

	if profile.Status == StatusSuspended || profile.Status == StatusArchived {
		c.emitActivity(ctx, ActivityEventSignInFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"identifier": email,
			"status":     profile.Status,
			"error":      ErrAccountSuspended.Message,
		})
		return "", ErrAccountSuspended
	}

	if err := c.users.TrackSuccessfulLogin(ctx, user); err != nil {
		c.logger.Error("failed to track successful sign-in: %v", err)
	}

	authUser := mergeAuthUser(user, profile)
	token, err := c.generateToken(ctx, authUser)
	if err != nil {
		return "", err
	}

	session, err := c.SessionFromToken(token)
	if err != nil {
		return "", err
	}

	c.mirrorSession(ctx, token, session)
	c.emitActivity(ctx, ActivityEventSignInSuccess, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"identifier": email,
	})
	c.notify(AuthChangeSignedIn, session)

	return token, nil
}

// SignUp creates the credential row and the profile row in one
// transaction. Partner sign-ups start pending; participants are approved
// immediately.
func (c *Credentials) SignUp(ctx context.Context, req SignUpRequest) (*AuthUser, error) {
	role, valid := ParseRole(req.Role)
	if !valid {
		role = RoleParticipant
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			return nil, rich
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        req.Email,
		PasswordHash: hash,
	}
	if id, err := hashid.NewUUID(req.Email); err == nil {
		user.ID = id
	}

	profile := &Profile{
		FullName:     req.FullName,
		Role:         role,
		Status:       DefaultStatus(role),
		Organization: req.Organization,
		Position:     req.Position,
		Phone:        req.Phone,
	}

	user, profile, err = c.registrar.RegisterAccount(ctx, user, profile)
	if err != nil {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			return nil, rich
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	authUser := mergeAuthUser(user, profile)

	token, err := c.generateToken(ctx, authUser)
	if err != nil {
		return nil, err
	}

	session, err := c.SessionFromToken(token)
	if err != nil {
		return nil, err
	}

	c.mirrorSession(ctx, token, session)
	c.emitActivity(ctx, ActivityEventSignUp, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"identifier": req.Email,
		"user_type":  role,
		"status":     profile.Status,
	})
	c.notify(AuthChangeRegistered, session)

	return authUser, nil
}

// SignOut clears the session mirror and notifies subscribers. It is
// idempotent: repeat calls are no-ops, never errors.
func (c *Credentials) SignOut(ctx context.Context) error {
	if err := c.cache.Clear(ctx); err != nil {
		c.logger.Warn("session cache clear error: %v", err)
	}

	c.emitActivity(ctx, ActivityEventSignOut, ActorRef{Type: "user"}, "", nil)
	c.notify(AuthChangeSignedOut, nil)
	return nil
}

// CurrentUser validates the token and merges its session with the
// freshly resolved profile. An expired token forces sign-out.
func (c *Credentials) CurrentUser(ctx context.Context, token string) (*AuthUser, error) {
	claims, err := c.tokens.Validate(token)
	if err != nil {
		if IsSessionExpired(err) {
			c.expireSession(ctx)
			return nil, ErrSessionExpired
		}
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	profile := c.resolver.ResolveOrDefault(ctx, userID)

	expires := claims.Expires()
	return &AuthUser{
		ID:           userID,
		Email:        claims.Email(),
		FullName:     profile.FullName,
		Role:         profile.Role,
		Status:       profile.Status,
		Organization: profile.Organization,
		ExpiresAt:    &expires,
	}, nil
}

// SessionFromToken validates a raw token and returns its session
func (c *Credentials) SessionFromToken(token string) (Session, error) {
	claims, err := c.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return sessionFromAuthClaims(claims)
}

// GetSession revalidates the persisted mirror and returns the current
// session, or nil when there is none. The mirror is dropped whenever the
// backing token no longer verifies; the token, not the mirror, is the
// source of truth.
func (c *Credentials) GetSession(ctx context.Context) (Session, error) {
	stored, err := c.cache.Load(ctx)
	if err != nil {
		c.logger.Warn("session cache load error: %v", err)
		return nil, nil
	}

	if stored == nil || stored.Token == "" {
		return nil, nil
	}

	session, err := c.SessionFromToken(stored.Token)
	if err != nil {
		if IsSessionExpired(err) {
			c.expireSession(ctx)
			return nil, ErrSessionExpired
		}
		if clearErr := c.cache.Clear(ctx); clearErr != nil {
			c.logger.Warn("session cache clear error: %v", clearErr)
		}
		return nil, nil
	}

	return session, nil
}

// OnAuthStateChange registers a listener for auth-state-change events and
// returns its unsubscribe handle. Events carry a monotonic sequence number
// and are delivered in emission order.
func (c *Credentials) OnAuthStateChange(fn func(AuthChangeEvent)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Credentials) expireSession(ctx context.Context) {
	if err := c.cache.Clear(ctx); err != nil {
		c.logger.Warn("session cache clear error: %v", err)
	}
	c.emitActivity(ctx, ActivityEventSessionExpired, ActorRef{Type: "system"}, "", nil)
	c.notify(AuthChangeExpired, nil)
}

func (c *Credentials) mirrorSession(ctx context.Context, token string, session Session) {
	obj, ok := session.(*SessionObject)
	if !ok {
		return
	}
	if err := c.cache.Store(ctx, &StoredSession{Token: token, Session: obj}); err != nil {
		c.logger.Warn("session cache store error: %v", err)
	}
}

// notify delivers the event to every listener while holding the lock so
// subscribers observe events in the order they were emitted.
func (c *Credentials) notify(eventType AuthChangeType, session Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	event := AuthChangeEvent{
		Type:    eventType,
		Session: session,
		Seq:     c.seq,
	}

	for _, fn := range c.listeners {
		fn(event)
	}
}

func (c *Credentials) emitActivity(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(c.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
}

func mergeAuthUser(user *User, profile *Profile) *AuthUser {
	merged := &AuthUser{
		ID:     user.ID,
		Email:  user.Email,
		Role:   RoleParticipant,
		Status: StatusPending,
	}

	if profile != nil {
		if profile.Role != "" {
			merged.Role = profile.Role
		}
		if profile.Status != "" {
			merged.Status = profile.Status
		}
		merged.FullName = profile.FullName
		merged.Organization = profile.Organization
	}

	return merged
}
