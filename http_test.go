package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	identity "github.com/qiesto/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeCredentialStore scripts the store side of the cookie transport
type fakeCredentialStore struct {
	token      string
	signInErr  error
	signOuts   int
	session    identity.Session
	sessionErr error
}

func (f *fakeCredentialStore) SignIn(ctx context.Context, email, password string) (string, error) {
	if f.signInErr != nil {
		return "", f.signInErr
	}
	return f.token, nil
}

func (f *fakeCredentialStore) SignUp(ctx context.Context, req identity.SignUpRequest) (*identity.AuthUser, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeCredentialStore) SignOut(ctx context.Context) error {
	f.signOuts++
	return nil
}

func (f *fakeCredentialStore) CurrentUser(ctx context.Context, token string) (*identity.AuthUser, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeCredentialStore) SessionFromToken(token string) (identity.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func TestRouteAuthenticatorSignInSetsCookie(t *testing.T) {
	store := &fakeCredentialStore{token: "signed.jwt.token"}
	auther, err := identity.NewRouteAuthenticator(store, TestConfig{})
	require.NoError(t, err)

	ctx := &MockContext{}
	ctx.On("Context").Return(context.Background())

	var captured *router.Cookie
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*router.Cookie)
	}).Return()

	payload := MockLoginPayload{
		Identifier: "user@example.com",
		Password:   "correct-horse-battery",
	}

	require.NoError(t, auther.SignIn(ctx, payload))

	require.NotNil(t, captured)
	assert.Equal(t, "identity", captured.Name)
	assert.Equal(t, "signed.jwt.token", captured.Value)
	assert.True(t, captured.HTTPOnly)
	assert.True(t, captured.Expires.After(time.Now()))
}

func TestRouteAuthenticatorSignInExtendedSession(t *testing.T) {
	store := &fakeCredentialStore{token: "signed.jwt.token"}
	auther, err := identity.NewRouteAuthenticator(store, TestConfig{})
	require.NoError(t, err)

	ctx := &MockContext{}
	ctx.On("Context").Return(context.Background())

	var captured *router.Cookie
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*router.Cookie)
	}).Return()

	payload := MockLoginPayload{
		Identifier:      "user@example.com",
		Password:        "correct-horse-battery",
		ExtendedSession: true,
	}

	require.NoError(t, auther.SignIn(ctx, payload))

	require.NotNil(t, captured)
	// remember-me cookies outlive the default duration
	assert.True(t, captured.Expires.After(time.Now().Add(auther.GetCookieDuration())))
}

func TestRouteAuthenticatorSignInPropagatesError(t *testing.T) {
	store := &fakeCredentialStore{signInErr: identity.ErrInvalidCredentials}
	auther, err := identity.NewRouteAuthenticator(store, TestConfig{})
	require.NoError(t, err)

	ctx := &MockContext{}
	ctx.On("Context").Return(context.Background())

	err = auther.SignIn(ctx, MockLoginPayload{Identifier: "user@example.com", Password: "bad"})
	require.Error(t, err)
	assert.True(t, identity.IsInvalidCredentials(err))
	ctx.AssertNotCalled(t, "Cookie", mock.Anything)
}

func TestRouteAuthenticatorSignOutClearsCookie(t *testing.T) {
	store := &fakeCredentialStore{}
	auther, err := identity.NewRouteAuthenticator(store, TestConfig{})
	require.NoError(t, err)

	ctx := &MockContext{}
	ctx.On("Context").Return(context.Background())

	var captured *router.Cookie
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(0).(*router.Cookie)
	}).Return()

	auther.SignOut(ctx)

	assert.Equal(t, 1, store.signOuts)
	require.NotNil(t, captured)
	assert.Equal(t, "identity", captured.Name)
	assert.Empty(t, captured.Value)
	assert.True(t, captured.Expires.Before(time.Now()))
}

func TestRouteAuthenticatorSessionFromCookie(t *testing.T) {
	session := &identity.SessionObject{
		UserID: uuid.NewString(),
		Email:  "user@example.com",
	}
	store := &fakeCredentialStore{session: session}
	auther, err := identity.NewRouteAuthenticator(store, TestConfig{})
	require.NoError(t, err)

	ctx := &MockContext{}
	ctx.On("Cookies", "identity").Return("signed.jwt.token")

	got, err := auther.SessionFromCookie(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestRouteAuthenticatorSessionFromCookieMissing(t *testing.T) {
	auther, err := identity.NewRouteAuthenticator(&fakeCredentialStore{}, TestConfig{})
	require.NoError(t, err)

	ctx := &MockContext{}
	ctx.On("Cookies", "identity").Return("")

	_, err = auther.SessionFromCookie(ctx)
	require.Error(t, err)
	assert.True(t, identity.IsTokenMalformed(err))
}

func TestRouteAuthenticatorGetRedirect(t *testing.T) {
	auther, err := identity.NewRouteAuthenticator(&fakeCredentialStore{}, TestConfig{})
	require.NoError(t, err)

	ctx := &MockContext{}
	ctx.On("Cookies", "rejected_route").Return("/partner-dashboard")
	ctx.On("Cookie", mock.Anything).Return()

	assert.Equal(t, "/partner-dashboard", auther.GetRedirect(ctx, "/dashboard"))
}

func TestRouteAuthenticatorGetRedirectFallsBack(t *testing.T) {
	auther, err := identity.NewRouteAuthenticator(&fakeCredentialStore{}, TestConfig{})
	require.NoError(t, err)

	ctx := &MockContext{}
	ctx.On("Cookies", "rejected_route").Return("")

	assert.Equal(t, "/dashboard", auther.GetRedirect(ctx, "/dashboard"))
}
