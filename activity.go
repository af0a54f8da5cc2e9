package identity

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignInSuccess        ActivityEventType = "auth.signin.success"
	ActivityEventSignInFailure        ActivityEventType = "auth.signin.failure"
	ActivityEventSignUp               ActivityEventType = "auth.signup"
	ActivityEventSignOut              ActivityEventType = "auth.signout"
	ActivityEventSessionExpired       ActivityEventType = "auth.session.expired"
	ActivityEventInactivityTimeout    ActivityEventType = "auth.session.inactivity"
	ActivityEventProfileDefaulted     ActivityEventType = "profile.lookup.defaulted"
	ActivityEventProfileStatusChanged ActivityEventType = "profile.status.changed"
	ActivityEventPasswordResetRequest ActivityEventType = "auth.password_reset.request"
	ActivityEventPasswordResetSuccess ActivityEventType = "auth.password_reset.success"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserID     string
	FromStatus Status
	ToStatus   Status
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
