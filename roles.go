package identity

// Dashboard routes per role. Kept here, next to the role definitions,
// because the guard's redirect contract depends on them.
const (
	ParticipantHome = "/dashboard"
	PartnerHome     = "/partner-dashboard"
	AdminHome       = "/admin"
	PartnerPending  = "/partner/pending"
)

// IsValidRole checks the role against the predefined set
func IsValidRole(r Role) bool {
	switch r {
	case RoleParticipant, RolePartner, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, IsValidRole(r)
}

// AllRoles returns the predefined roles
func AllRoles() []Role {
	return []Role{RoleParticipant, RolePartner, RoleAdmin}
}

// HomePath returns the dashboard route a role lands on. Unknown roles get
// the participant dashboard, the least privileged destination.
func HomePath(r Role) string {
	switch r {
	case RolePartner:
		return PartnerHome
	case RoleAdmin:
		return AdminHome
	default:
		return ParticipantHome
	}
}

// DefaultStatus returns the status assigned to a fresh sign-up for a role.
// Partner accounts wait for administrative approval, everyone else is live
// immediately.
func DefaultStatus(r Role) Status {
	if r == RolePartner {
		return StatusPending
	}
	return StatusApproved
}

// RoleLevel returns the privilege rank used for hierarchy checks.
// Unknown roles rank below every valid role.
func RoleLevel(r Role) int {
	switch r {
	case RoleAdmin:
		return 3
	case RolePartner:
		return 2
	case RoleParticipant:
		return 1
	default:
		return 0
	}
}

// RoleAtLeast reports whether r ranks at or above min in the hierarchy.
func RoleAtLeast(r, min Role) bool {
	level := RoleLevel(r)
	return level > 0 && level >= RoleLevel(min)
}

// RoleAllowed reports whether the role is in the allowed set. An empty set
// allows every authenticated role.
func RoleAllowed(r Role, allowed []Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}
