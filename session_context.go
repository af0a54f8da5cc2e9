package identity

import (
	"context"
	"sync"
)

// ContextState is the lifecycle state of the session context
type ContextState int

const (
	// StateUninitialized is the state before Start
	StateUninitialized ContextState = iota
	// StateLoading covers the window between Start and the first resolution
	StateLoading
	// StateReady means the user value (possibly nil) is authoritative
	StateReady
)

// Snapshot is the immutable value readers observe. Seq increases by one
// per applied change, so readers can detect staleness.
type Snapshot struct {
	State ContextState
	User  *AuthUser
	Seq   uint64
}

// Loading reports whether the context has not resolved yet. Guards must
// not make redirect decisions while this is true.
func (s Snapshot) Loading() bool {
	return s.State != StateReady
}

// Authenticated reports whether a user is signed in
func (s Snapshot) Authenticated() bool {
	return s.State == StateReady && s.User != nil
}

// SessionContext is the process-wide reactive holder of the current
// AuthUser. It has exactly one writer, an internal apply loop that
// consumes auth-state-change events in emission order; the initial
// session check races the listener and loses to it: once any listener
// event has been applied, the initial check's result is discarded.
type SessionContext struct {
	source   SessionSource
	resolver *ProfileResolver
	logger   Logger

	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]func(Snapshot)
	nextSub int

	events       chan AuthChangeEvent
	initial      chan *AuthUser
	unsubscribe  func()
	cancel       context.CancelFunc
	done         chan struct{}
	started      bool
	closed       bool
	appliedEvent bool
}

// NewSessionContext builds a context over a session source and resolver.
// Call Start to begin resolving and Close on teardown.
func NewSessionContext(source SessionSource, resolver *ProfileResolver) *SessionContext {
	return &SessionContext{
		source:   source,
		resolver: resolver,
		logger:   defLogger{},
		subs:     map[int]func(Snapshot){},
		events:   make(chan AuthChangeEvent, 64),
		initial:  make(chan *AuthUser, 1),
		done:     make(chan struct{}),
	}
}

func (c *SessionContext) WithLogger(logger Logger) *SessionContext {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Start transitions Uninitialized to Loading, subscribes to the source's
// auth-state-change feed, and kicks off the initial session check. Safe to
// call once; repeat calls are no-ops.
func (c *SessionContext) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.snap = Snapshot{State: StateLoading, Seq: c.snap.Seq + 1}
	snap := c.snap
	c.mu.Unlock()

	c.fanout(snap)

	runCtx, cancel := context.WithCancel(ctx)
	unsubscribe := c.source.OnAuthStateChange(func(ev AuthChangeEvent) {
		select {
		case c.events <- ev:
		case <-runCtx.Done():
		}
	})

	c.mu.Lock()
	c.cancel = cancel
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	go c.initialCheck(runCtx)
	go c.run(runCtx)
}

// Snapshot returns the current value
func (c *SessionContext) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// User returns the current AuthUser, nil while loading or signed out
func (c *SessionContext) User() *AuthUser {
	return c.Snapshot().User
}

// Subscribe registers an observer called on every applied change and
// returns its unsubscribe func. Observers run on the apply loop, so they
// see changes in order and must not block.
func (c *SessionContext) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Close unsubscribes the source listener, abandons in-flight resolutions,
// and stops the apply loop. The final snapshot is left in place for any
// stragglers still holding a reference.
func (c *SessionContext) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	started := c.started
	unsubscribe := c.unsubscribe
	cancel := c.cancel
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	if started {
		<-c.done
	}
}

// initialCheck resolves any persisted session. Its result is delivered to
// the apply loop rather than applied directly so the loop stays the only
// writer.
func (c *SessionContext) initialCheck(ctx context.Context) {
	session, err := c.source.GetSession(ctx)
	if err != nil && !IsSessionExpired(err) {
		c.logger.Warn("initial session check error: %v", err)
	}

	user := c.resolveSession(ctx, session)

	select {
	case c.initial <- user:
	case <-ctx.Done():
	}
}

func (c *SessionContext) run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			user := c.resolveSession(ctx, ev.Session)
			c.apply(user, true)
		case user := <-c.initial:
			// The listener is authoritative for anything after mount: a
			// slow initial check must not overwrite newer state.
			c.mu.RLock()
			stale := c.appliedEvent
			c.mu.RUnlock()
			if stale {
				continue
			}
			c.apply(user, false)
		}
	}
}

func (c *SessionContext) apply(user *AuthUser, fromListener bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if fromListener {
		c.appliedEvent = true
	}
	c.snap = Snapshot{
		State: StateReady,
		User:  user,
		Seq:   c.snap.Seq + 1,
	}
	snap := c.snap
	c.mu.Unlock()

	c.fanout(snap)
}

func (c *SessionContext) fanout(snap Snapshot) {
	c.mu.RLock()
	observers := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		observers = append(observers, fn)
	}
	c.mu.RUnlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// resolveSession merges a session with its profile. A nil session means
// signed out; a session whose profile cannot be resolved degrades to the
// least privileged AuthUser rather than blocking.
func (c *SessionContext) resolveSession(ctx context.Context, session Session) *AuthUser {
	if session == nil {
		return nil
	}

	userID, err := session.GetUserUUID()
	if err != nil {
		c.logger.Error("session carries unparseable user id: %v", err)
		return nil
	}

	profile := c.resolver.ResolveOrDefault(ctx, userID)

	return &AuthUser{
		ID:           userID,
		Email:        session.GetEmail(),
		FullName:     profile.FullName,
		Role:         profile.Role,
		Status:       profile.Status,
		Organization: profile.Organization,
		ExpiresAt:    session.GetExpiration(),
	}
}
