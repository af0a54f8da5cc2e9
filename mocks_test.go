package identity_test

import (
	"context"
	"io"
	"mime/multipart"
	"sync"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	identity "github.com/qiesto/go-identity"
	"github.com/stretchr/testify/mock"
)

// MockUserTracker implements identity.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*identity.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRegistrar implements identity.AccountRegistrar
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) RegisterAccount(ctx context.Context, user *identity.User, profile *identity.Profile) (*identity.User, *identity.Profile, error) {
	args := m.Called(ctx, user, profile)
	u, _ := args.Get(0).(*identity.User)
	p, _ := args.Get(1).(*identity.Profile)
	return u, p, args.Error(2)
}

// MockProfileStore implements identity.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) FetchProfile(ctx context.Context, userID uuid.UUID) (*identity.Profile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*identity.Profile)
	return profile, args.Error(1)
}

// MockProfileStatusStore implements identity.ProfileStatusStore
type MockProfileStatusStore struct {
	mock.Mock
}

func (m *MockProfileStatusStore) UpdateStatus(ctx context.Context, id uuid.UUID, status identity.Status, opts ...identity.StatusUpdateOption) (*identity.Profile, error) {
	args := m.Called(ctx, id, status, opts)
	profile, _ := args.Get(0).(*identity.Profile)
	return profile, args.Error(1)
}

// FakeSessionSource is a hand-rolled SessionSource whose listeners can be
// fed events directly, which the session context tests need to script
// orderings that a mock cannot express.
type FakeSessionSource struct {
	mu        sync.Mutex
	session   identity.Session
	err       error
	delay     time.Duration
	seq       uint64
	nextSub   int
	listeners map[int]func(identity.AuthChangeEvent)
}

func NewFakeSessionSource() *FakeSessionSource {
	return &FakeSessionSource{
		listeners: map[int]func(identity.AuthChangeEvent){},
	}
}

func (f *FakeSessionSource) SetSession(s identity.Session, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
	f.err = err
}

// SetSessionDelay makes GetSession slow, simulating a sluggish initial
// session check.
func (f *FakeSessionSource) SetSessionDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *FakeSessionSource) GetSession(ctx context.Context) (identity.Session, error) {
	f.mu.Lock()
	session, err, delay := f.session, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return session, err
}

func (f *FakeSessionSource) OnAuthStateChange(fn func(identity.AuthChangeEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	f.listeners[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *FakeSessionSource) Emit(eventType identity.AuthChangeType, session identity.Session) {
	f.mu.Lock()
	f.seq++
	event := identity.AuthChangeEvent{
		Type:    eventType,
		Session: session,
		Seq:     f.seq,
	}
	fns := make([]func(identity.AuthChangeEvent), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

func (f *FakeSessionSource) ListenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// CapturingSink records activity events for assertions
type CapturingSink struct {
	mu     sync.Mutex
	events []identity.ActivityEvent
}

func (s *CapturingSink) Record(ctx context.Context, event identity.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *CapturingSink) Events() []identity.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *CapturingSink) HasEvent(eventType identity.ActivityEventType) bool {
	for _, ev := range s.Events() {
		if ev.EventType == eventType {
			return true
		}
	}
	return false
}

// TestConfig implements identity.Config
type TestConfig struct {
	SigningKey        string
	TokenExpiration   int
	InactivityTimeout time.Duration
}

func (c TestConfig) GetSigningKey() string {
	if c.SigningKey == "" {
		return "test-signing-key"
	}
	return c.SigningKey
}

func (c TestConfig) GetSigningMethod() string { return "HS256" }

func (c TestConfig) GetContextKey() string { return "identity" }

func (c TestConfig) GetTokenExpiration() int {
	if c.TokenExpiration == 0 {
		return 24
	}
	return c.TokenExpiration
}

func (c TestConfig) GetExtendedTokenDuration() int { return 168 }

func (c TestConfig) GetTokenLookup() string { return "cookie:identity" }

func (c TestConfig) GetAuthScheme() string { return "Bearer" }

func (c TestConfig) GetIssuer() string { return "test-issuer" }

func (c TestConfig) GetAudience() []string { return []string{"test-audience"} }

func (c TestConfig) GetRejectedRouteKey() string { return "rejected_route" }

func (c TestConfig) GetRejectedRouteDefault() string { return "/dashboard" }

func (c TestConfig) GetSignInRoute() string { return "/signin" }

func (c TestConfig) GetInactivityTimeout() time.Duration {
	if c.InactivityTimeout == 0 {
		return identity.DefaultInactivityTimeout
	}
	return c.InactivityTimeout
}

func (c TestConfig) GetProfileLookupTimeout() time.Duration { return 5 * time.Second }

func (c TestConfig) GetProfileLookupRetries() int { return 2 }

// MockLoginPayload implements identity.LoginPayload
type MockLoginPayload struct {
	Identifier      string
	Password        string
	ExtendedSession bool
}

func (m MockLoginPayload) GetIdentifier() string {
	return m.Identifier
}

func (m MockLoginPayload) GetPassword() string {
	return m.Password
}

func (m MockLoginPayload) GetExtendedSession() bool {
	return m.ExtendedSession
}

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	def := ""
	if len(defaultValue) > 0 {
		def = defaultValue[0]
	}
	args := m.Called(key, def)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) QueryValues(name string) []string {
	args := m.Called(name)
	vals, _ := args.Get(0).([]string)
	return vals
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	merged, _ := args.Get(0).(map[string]any)
	return merged
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	def := ""
	if len(defaultValue) > 0 {
		def = defaultValue[0]
	}
	args := m.Called(key, def)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	params, _ := args.Get(0).(map[string]string)
	return params
}
