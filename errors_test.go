package identity_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	identity "github.com/qiesto/go-identity"
	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	assert.True(t, identity.IsInvalidCredentials(identity.ErrInvalidCredentials))
	assert.True(t, identity.IsRateLimited(identity.ErrRateLimited))
	assert.True(t, identity.IsSessionExpired(identity.ErrSessionExpired))
	assert.True(t, identity.IsTokenMalformed(identity.ErrTokenMalformed))

	assert.False(t, identity.IsInvalidCredentials(nil))
	assert.False(t, identity.IsRateLimited(identity.ErrInvalidCredentials))
	assert.False(t, identity.IsSessionExpired(errors.New("other")))
}

func TestIsSessionExpiredMatchesRawJWTMessage(t *testing.T) {
	assert.True(t, identity.IsSessionExpired(errors.New("token has invalid claims: token is expired")))
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, goerrors.CategoryAuth, identity.ErrInvalidCredentials.Category)
	assert.Equal(t, goerrors.CategoryAuth, identity.ErrSessionExpired.Category)
	assert.Equal(t, goerrors.CategoryAuthz, identity.ErrAccountSuspended.Category)
	assert.Equal(t, goerrors.CategoryNotFound, identity.ErrIdentityNotFound.Category)
}
