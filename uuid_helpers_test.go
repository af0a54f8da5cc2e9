package identity_test

import (
	"testing"

	"github.com/google/uuid"
	identity "github.com/qiesto/go-identity"
	"github.com/stretchr/testify/assert"
)

func TestHasUserUUID(t *testing.T) {
	t.Run("uuid subject", func(t *testing.T) {
		session := &identity.SessionObject{
			UserID: uuid.NewString(),
		}

		assert.True(t, identity.HasUserUUID(session))
	})

	t.Run("non uuid subject", func(t *testing.T) {
		session := &identity.SessionObject{
			UserID: "legacy|1234567890",
		}

		assert.False(t, identity.HasUserUUID(session))
	})

	t.Run("nil session", func(t *testing.T) {
		assert.False(t, identity.HasUserUUID(nil))
	})
}
