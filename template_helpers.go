package identity

// TemplateUserKey is where the merged user is stored for view rendering.
var TemplateUserKey = "current_user"

// TemplateHelpers returns a map of helper functions and data that can be
// used with go-template's WithGlobalData option for auth-aware templates.
//
// In templates:
//
//	{% if current_user %}
//	{% if current_user|has_role:"partner" %}
//	{% if current_user|is_approved %}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": templateIsAuthenticated,
		"has_role":         templateHasRole,
		"is_at_least":      templateIsAtLeast,
		"is_approved":      templateIsApproved,
		"is_pending":       templateIsPending,
		"home_path":        templateHomePath,

		// Role constants for easy template access
		"roles": map[string]string{
			"participant": RoleParticipant,
			"partner":     RolePartner,
			"admin":       RoleAdmin,
		},
	}
}

// TemplateHelpersWithUser returns template helpers with a specific user
// injected as current_user.
func TemplateHelpersWithUser(user *AuthUser) map[string]any {
	helpers := TemplateHelpers()
	helpers[TemplateUserKey] = user
	return helpers
}

func templateIsAuthenticated(user any) bool {
	switch u := user.(type) {
	case *AuthUser:
		return u != nil
	case AuthUser:
		return true
	case AuthClaims:
		return u != nil && u.UserID() != ""
	case map[string]any:
		return len(u) > 0
	default:
		return false
	}
}

func templateHasRole(user any, role string) bool {
	return templateRole(user) == role
}

func templateIsAtLeast(user any, minRole string) bool {
	return RoleAtLeast(templateRole(user), minRole)
}

func templateIsApproved(user any) bool {
	return templateStatus(user) == StatusApproved
}

func templateIsPending(user any) bool {
	return templateStatus(user) == StatusPending
}

func templateHomePath(user any) string {
	if !templateIsAuthenticated(user) {
		return "/signin"
	}
	return HomePath(templateRole(user))
}

func templateRole(user any) Role {
	switch u := user.(type) {
	case *AuthUser:
		if u == nil {
			return ""
		}
		return u.Role
	case AuthUser:
		return u.Role
	case AuthClaims:
		if u == nil {
			return ""
		}
		return u.Role()
	case map[string]any:
		// handle JSON-converted user objects
		if role, ok := u["user_type"].(string); ok {
			return role
		}
		if role, ok := u["role"].(string); ok {
			return role
		}
		return ""
	default:
		return ""
	}
}

func templateStatus(user any) Status {
	switch u := user.(type) {
	case *AuthUser:
		if u == nil {
			return ""
		}
		return u.Status
	case AuthUser:
		return u.Status
	case AuthClaims:
		if u == nil {
			return ""
		}
		return u.Status()
	case map[string]any:
		if status, ok := u["status"].(string); ok {
			return status
		}
		return ""
	default:
		return ""
	}
}
