package identity_test

import (
	"context"
	"sync"
	"testing"
	"time"

	identity "github.com/qiesto/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signOutRecorder is a CredentialStore that only counts SignOut calls;
// the monitor touches nothing else.
type signOutRecorder struct {
	mu       sync.Mutex
	signOuts int
}

func (s *signOutRecorder) SignIn(ctx context.Context, email, password string) (string, error) {
	return "", nil
}

func (s *signOutRecorder) SignUp(ctx context.Context, req identity.SignUpRequest) (*identity.AuthUser, error) {
	return nil, nil
}

func (s *signOutRecorder) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signOuts++
	return nil
}

func (s *signOutRecorder) CurrentUser(ctx context.Context, token string) (*identity.AuthUser, error) {
	return nil, nil
}

func (s *signOutRecorder) SessionFromToken(token string) (identity.Session, error) {
	return nil, nil
}

func (s *signOutRecorder) SignOuts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signOuts
}

func waitForSignOuts(t *testing.T, store *signOutRecorder, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.SignOuts() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d sign-outs, got %d", want, store.SignOuts())
}

func TestInactivityMonitorSignsOutAfterTimeout(t *testing.T) {
	store := &signOutRecorder{}
	sink := &CapturingSink{}

	monitor := identity.NewInactivityMonitor(store, 30*time.Millisecond).
		WithActivitySink(sink)

	monitor.Start(context.Background())
	defer monitor.Stop()

	waitForSignOuts(t, store, 1)

	require.NotNil(t, monitor.TimedOutAt())
	assert.True(t, sink.HasEvent(identity.ActivityEventInactivityTimeout))
}

func TestInactivityMonitorTouchResetsCountdown(t *testing.T) {
	store := &signOutRecorder{}

	monitor := identity.NewInactivityMonitor(store, 100*time.Millisecond)
	monitor.Start(context.Background())
	defer monitor.Stop()

	// keep touching well inside the window
	for i := 0; i < 6; i++ {
		time.Sleep(40 * time.Millisecond)
		monitor.Touch()
	}

	assert.Equal(t, 0, store.SignOuts())
	assert.Nil(t, monitor.TimedOutAt())

	// then go idle and let it fire
	waitForSignOuts(t, store, 1)
}

func TestInactivityMonitorStopPreventsExpiry(t *testing.T) {
	store := &signOutRecorder{}

	monitor := identity.NewInactivityMonitor(store, 50*time.Millisecond)
	monitor.Start(context.Background())
	monitor.Stop()

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, store.SignOuts())
}

func TestInactivityMonitorStopIsIdempotent(t *testing.T) {
	store := &signOutRecorder{}

	monitor := identity.NewInactivityMonitor(store, time.Hour)
	monitor.Start(context.Background())
	monitor.Stop()
	monitor.Stop()
}

func TestInactivityMonitorDefaultsTimeout(t *testing.T) {
	monitor := identity.NewInactivityMonitor(&signOutRecorder{}, 0)
	require.NotNil(t, monitor)
	// a zero timeout must not produce an immediately firing timer
	monitor.Start(context.Background())
	defer monitor.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Nil(t, monitor.TimedOutAt())
}

func TestInactivityMonitorContextCancelStops(t *testing.T) {
	store := &signOutRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	monitor := identity.NewInactivityMonitor(store, 50*time.Millisecond)
	monitor.Start(ctx)
	cancel()

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, store.SignOuts())
}
