package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ProfileResolver fetches the role/status record for an authenticated
// session. Lookups are retried with backoff before the resolver gives up;
// when it does give up the caller degrades to least privilege instead of
// failing the render path.
type ProfileResolver struct {
	store        ProfileStore
	logger       Logger
	activitySink ActivitySink
	retries      int
	backoff      time.Duration
	timeout      time.Duration
}

// NewProfileResolver returns a resolver with bounded retry defaults:
// two retries, 250ms initial backoff, 10s overall timeout per call.
func NewProfileResolver(store ProfileStore) *ProfileResolver {
	return &ProfileResolver{
		store:        store,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		retries:      2,
		backoff:      250 * time.Millisecond,
		timeout:      10 * time.Second,
	}
}

func (r *ProfileResolver) WithLogger(logger Logger) *ProfileResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithActivitySink configures the sink that records defaulting decisions.
func (r *ProfileResolver) WithActivitySink(sink ActivitySink) *ProfileResolver {
	r.activitySink = normalizeActivitySink(sink)
	return r
}

// WithRetryPolicy overrides the retry count and initial backoff.
func (r *ProfileResolver) WithRetryPolicy(retries int, backoff time.Duration) *ProfileResolver {
	if retries >= 0 {
		r.retries = retries
	}
	if backoff > 0 {
		r.backoff = backoff
	}
	return r
}

// WithTimeout bounds each Resolve call so a hung backend cannot leave the
// session context loading forever.
func (r *ProfileResolver) WithTimeout(timeout time.Duration) *ProfileResolver {
	if timeout > 0 {
		r.timeout = timeout
	}
	return r
}

// Resolve fetches the profile row for the identity id. A missing row is
// ErrIdentityNotFound and is not retried; transient failures are retried
// with doubling backoff up to the configured budget.
func (r *ProfileResolver) Resolve(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var lastErr error
	wait := r.backoff

	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, goerrors.Wrap(ctx.Err(), ErrProfileLookup.Category, ErrProfileLookup.Message).
					WithTextCode(ErrProfileLookup.TextCode)
			case <-time.After(wait):
			}
			wait *= 2
		}

		profile, err := r.store.FetchProfile(ctx, userID)
		if err == nil {
			if profile == nil {
				return nil, ErrIdentityNotFound
			}
			profile.EnsureStatus()
			return profile, nil
		}

		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}

		lastErr = err
		r.logger.Warn("profile lookup attempt %d for %s failed: %v", attempt, userID, err)
	}

	return nil, goerrors.Wrap(lastErr, ErrProfileLookup.Category, ErrProfileLookup.Message).
		WithTextCode(ErrProfileLookup.TextCode)
}

// ResolveOrDefault applies the least-privilege policy: when the profile
// cannot be resolved the session continues as a pending participant. The
// downgrade is logged and recorded because it silently narrows a partner's
// access until the backend recovers.
func (r *ProfileResolver) ResolveOrDefault(ctx context.Context, userID uuid.UUID) *Profile {
	profile, err := r.Resolve(ctx, userID)
	if err == nil {
		return profile
	}

	r.logger.Error("profile lookup for %s failed, defaulting to least privilege: %v", userID, err)

	event := ActivityEvent{
		EventType: ActivityEventProfileDefaulted,
		Actor:     ActorRef{Type: "system"},
		UserID:    userID.String(),
		Metadata: map[string]any{
			"error": err.Error(),
		},
		OccurredAt: time.Now(),
	}
	if sinkErr := normalizeActivitySink(r.activitySink).Record(ctx, event); sinkErr != nil {
		r.logger.Warn("activity sink record error: %v", sinkErr)
	}

	return &Profile{
		UserID: userID,
		Role:   RoleParticipant,
		Status: StatusPending,
	}
}
