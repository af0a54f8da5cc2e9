package identity

import (
	"context"
	"sync"
	"time"
)

// DefaultInactivityTimeout is how long a session survives without any
// pointer or key activity.
var DefaultInactivityTimeout = 30 * time.Minute

// InactivityMonitor forces a sign-out after a period without activity.
// Hosts call Touch on every pointer-move or key-press; expiry signs the
// account out through the credential store, which clears the session
// context via its auth-state-change event. The sign-out is silent; use
// TimedOutAt to show a notice on the next interaction.
type InactivityMonitor struct {
	store        CredentialStore
	timeout      time.Duration
	logger       Logger
	activitySink ActivitySink

	touch    chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu         sync.Mutex
	started    bool
	timedOutAt *time.Time
}

// NewInactivityMonitor builds a monitor over the credential store. A zero
// or negative timeout falls back to DefaultInactivityTimeout.
func NewInactivityMonitor(store CredentialStore, timeout time.Duration) *InactivityMonitor {
	if timeout <= 0 {
		timeout = DefaultInactivityTimeout
	}
	return &InactivityMonitor{
		store:        store,
		timeout:      timeout,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		touch:        make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (m *InactivityMonitor) WithLogger(logger Logger) *InactivityMonitor {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures the sink that records timeout sign-outs.
func (m *InactivityMonitor) WithActivitySink(sink ActivitySink) *InactivityMonitor {
	m.activitySink = normalizeActivitySink(sink)
	return m
}

// Start launches the countdown. Safe to call once; repeat calls no-op.
func (m *InactivityMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go m.run(ctx)
}

// Touch resets the countdown. Cheap and coalescing, so hosts can call it
// on every interaction event without throttling.
func (m *InactivityMonitor) Touch() {
	select {
	case m.touch <- struct{}{}:
	default:
	}
}

// Stop releases the timer and the goroutine. Must be called on context
// teardown so timers do not leak across navigations.
func (m *InactivityMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})

	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		<-m.done
	}
}

// TimedOutAt reports when the last inactivity sign-out happened, nil if
// none has.
func (m *InactivityMonitor) TimedOutAt() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timedOutAt
}

// run owns the timer exclusively; Touch and Stop communicate over
// channels so there is no shared timer state to race on.
func (m *InactivityMonitor) run(ctx context.Context) {
	defer close(m.done)

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-m.touch:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.timeout)
		case <-timer.C:
			m.expire(ctx)
			timer.Reset(m.timeout)
		}
	}
}

func (m *InactivityMonitor) expire(ctx context.Context) {
	now := time.Now()

	m.mu.Lock()
	m.timedOutAt = &now
	m.mu.Unlock()

	if err := m.store.SignOut(ctx); err != nil {
		m.logger.Error("inactivity sign-out error: %v", err)
	}

	event := ActivityEvent{
		EventType:  ActivityEventInactivityTimeout,
		Actor:      ActorRef{Type: "system"},
		OccurredAt: now,
		Metadata: map[string]any{
			"timeout": m.timeout.String(),
		},
	}
	if err := normalizeActivitySink(m.activitySink).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}

	m.logger.Info("session signed out after %s of inactivity", m.timeout)
}
