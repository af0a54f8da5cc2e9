package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	identity "github.com/qiesto/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolveReturnsProfile(t *testing.T) {
	store := &MockProfileStore{}
	userID := uuid.New()

	expected := &identity.Profile{
		ID:     uuid.New(),
		UserID: userID,
		Role:   identity.RolePartner,
		Status: identity.StatusApproved,
	}

	store.On("FetchProfile", mock.Anything, userID).Return(expected, nil).Once()

	resolver := identity.NewProfileResolver(store)

	profile, err := resolver.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, expected, profile)
	store.AssertExpectations(t)
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	store := &MockProfileStore{}
	userID := uuid.New()

	expected := &identity.Profile{
		ID:     uuid.New(),
		UserID: userID,
		Role:   identity.RoleParticipant,
		Status: identity.StatusApproved,
	}

	store.On("FetchProfile", mock.Anything, userID).
		Return(nil, errors.New("connection reset")).Twice()
	store.On("FetchProfile", mock.Anything, userID).
		Return(expected, nil).Once()

	resolver := identity.NewProfileResolver(store).
		WithRetryPolicy(2, time.Millisecond)

	profile, err := resolver.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, expected, profile)
	store.AssertExpectations(t)
}

func TestResolveGivesUpAfterRetryBudget(t *testing.T) {
	store := &MockProfileStore{}
	userID := uuid.New()

	store.On("FetchProfile", mock.Anything, userID).
		Return(nil, errors.New("connection reset")).Times(3)

	resolver := identity.NewProfileResolver(store).
		WithRetryPolicy(2, time.Millisecond)

	_, err := resolver.Resolve(context.Background(), userID)
	require.Error(t, err)
	store.AssertExpectations(t)
}

func TestResolveMissingRowIsNotRetried(t *testing.T) {
	store := &MockProfileStore{}
	userID := uuid.New()

	store.On("FetchProfile", mock.Anything, userID).
		Return(nil, repository.NewRecordNotFound()).Once()

	resolver := identity.NewProfileResolver(store).
		WithRetryPolicy(3, time.Millisecond)

	_, err := resolver.Resolve(context.Background(), userID)
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrIdentityNotFound)

	store.AssertNumberOfCalls(t, "FetchProfile", 1)
}

func TestResolveBackfillsEmptyStatus(t *testing.T) {
	store := &MockProfileStore{}
	userID := uuid.New()

	store.On("FetchProfile", mock.Anything, userID).
		Return(&identity.Profile{UserID: userID, Role: identity.RolePartner}, nil)

	resolver := identity.NewProfileResolver(store)

	profile, err := resolver.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, identity.StatusPending, profile.Status)
}

func TestResolveOrDefaultDowngradesToLeastPrivilege(t *testing.T) {
	store := &MockProfileStore{}
	sink := &CapturingSink{}
	userID := uuid.New()

	store.On("FetchProfile", mock.Anything, userID).
		Return(nil, errors.New("backend down"))

	resolver := identity.NewProfileResolver(store).
		WithRetryPolicy(0, time.Millisecond).
		WithActivitySink(sink)

	profile := resolver.ResolveOrDefault(context.Background(), userID)

	require.NotNil(t, profile)
	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, identity.RoleParticipant, profile.Role)
	assert.Equal(t, identity.StatusPending, profile.Status)

	assert.True(t, sink.HasEvent(identity.ActivityEventProfileDefaulted))
}

func TestResolveOrDefaultPassesThroughOnSuccess(t *testing.T) {
	store := &MockProfileStore{}
	sink := &CapturingSink{}
	userID := uuid.New()

	expected := &identity.Profile{
		UserID: userID,
		Role:   identity.RoleAdmin,
		Status: identity.StatusApproved,
	}
	store.On("FetchProfile", mock.Anything, userID).Return(expected, nil)

	resolver := identity.NewProfileResolver(store).WithActivitySink(sink)

	profile := resolver.ResolveOrDefault(context.Background(), userID)
	assert.Equal(t, expected, profile)
	assert.False(t, sink.HasEvent(identity.ActivityEventProfileDefaulted))
}
