package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateHelpers(t *testing.T) {
	helpers := TemplateHelpers()

	expectedHelpers := []string{
		"is_authenticated",
		"has_role",
		"is_at_least",
		"is_approved",
		"is_pending",
		"home_path",
		"roles",
	}

	for _, helper := range expectedHelpers {
		assert.Contains(t, helpers, helper, "Expected helper %s should be present", helper)
	}

	roles, ok := helpers["roles"].(map[string]string)
	require.True(t, ok, "roles should be a map[string]string")
	assert.Equal(t, RoleParticipant, roles["participant"])
	assert.Equal(t, RolePartner, roles["partner"])
	assert.Equal(t, RoleAdmin, roles["admin"])
}

func TestTemplateHelpersWithUser(t *testing.T) {
	user := &AuthUser{
		ID:     uuid.New(),
		Email:  "user@example.com",
		Role:   RolePartner,
		Status: StatusApproved,
	}

	helpers := TemplateHelpersWithUser(user)
	assert.Equal(t, user, helpers[TemplateUserKey])
}

func TestTemplateIsAuthenticated(t *testing.T) {
	assert.True(t, templateIsAuthenticated(&AuthUser{Role: RoleParticipant}))
	assert.True(t, templateIsAuthenticated(AuthUser{Role: RoleParticipant}))
	assert.True(t, templateIsAuthenticated(map[string]any{"user_type": "admin"}))

	assert.False(t, templateIsAuthenticated(nil))
	assert.False(t, templateIsAuthenticated((*AuthUser)(nil)))
	assert.False(t, templateIsAuthenticated(map[string]any{}))
	assert.False(t, templateIsAuthenticated("not-a-user"))
}

func TestTemplateRoleSources(t *testing.T) {
	// view code hands these helpers whatever shape it has on hand
	assert.True(t, templateHasRole(&AuthUser{Role: RolePartner}, RolePartner))
	assert.True(t, templateHasRole(&JWTClaims{UserRole: RoleAdmin}, RoleAdmin))
	assert.True(t, templateHasRole(map[string]any{"user_type": RoleParticipant}, RoleParticipant))
	assert.True(t, templateHasRole(map[string]any{"role": RoleParticipant}, RoleParticipant))

	assert.False(t, templateHasRole(nil, RoleParticipant))
	assert.False(t, templateHasRole(&AuthUser{Role: RolePartner}, RoleAdmin))
}

func TestTemplateIsAtLeast(t *testing.T) {
	admin := &AuthUser{Role: RoleAdmin}
	participant := &AuthUser{Role: RoleParticipant}

	assert.True(t, templateIsAtLeast(admin, RolePartner))
	assert.False(t, templateIsAtLeast(participant, RolePartner))
	assert.False(t, templateIsAtLeast(nil, RoleParticipant))
}

func TestTemplateStatusHelpers(t *testing.T) {
	assert.True(t, templateIsApproved(&AuthUser{Status: StatusApproved}))
	assert.False(t, templateIsApproved(&AuthUser{Status: StatusPending}))

	assert.True(t, templateIsPending(map[string]any{"status": "pending"}))
	assert.False(t, templateIsPending(map[string]any{"status": "approved"}))
}

func TestTemplateHomePath(t *testing.T) {
	assert.Equal(t, ParticipantHome, templateHomePath(&AuthUser{Role: RoleParticipant}))
	assert.Equal(t, PartnerHome, templateHomePath(&AuthUser{Role: RolePartner}))
	assert.Equal(t, AdminHome, templateHomePath(&AuthUser{Role: RoleAdmin}))

	// signed out sessions have no home, they go to sign-in
	assert.Equal(t, "/signin", templateHomePath(nil))
}
