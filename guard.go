package identity

import (
	"net/http"

	"github.com/goliatone/go-router"
)

// GuardAction is the outcome of a guard evaluation
type GuardAction int

const (
	// GuardAllow lets the navigation proceed
	GuardAllow GuardAction = iota
	// GuardPlaceholder renders a loading placeholder; no redirect decision
	// can be made until the session context resolves
	GuardPlaceholder
	// GuardRedirect bounces the navigation to Target
	GuardRedirect
)

// GuardDecision is what Decide produces for a navigation
type GuardDecision struct {
	Action GuardAction
	Target string
}

// DefaultSignInPath is where unauthenticated navigations are sent
var DefaultSignInPath = "/signin"

// Decide evaluates a navigation against the session snapshot and the
// route's allowed roles.
//
// While the context is loading no redirect happens: bouncing before the
// session resolves would incorrectly eject authenticated users. A signed
// out user goes to sign-in. A user whose role is not in the allowed set
// goes to their own role's home, never an error page. A pending partner
// is diverted to the pending page instead of the partner dashboard. If
// the computed target is the path being guarded the navigation is allowed
// through, which keeps a misconfigured route from redirecting to itself
// forever.
func Decide(snap Snapshot, allowed []Role, path string) GuardDecision {
	if snap.Loading() {
		return GuardDecision{Action: GuardPlaceholder}
	}

	if !snap.Authenticated() {
		return redirect(DefaultSignInPath, path)
	}

	user := snap.User

	if !RoleAllowed(user.Role, allowed) {
		return redirect(HomePath(user.Role), path)
	}

	if user.Role == RolePartner && !user.IsApproved() && path != PartnerPending {
		return redirect(PartnerPending, path)
	}

	return GuardDecision{Action: GuardAllow}
}

func redirect(target, path string) GuardDecision {
	if target == path {
		return GuardDecision{Action: GuardAllow}
	}
	return GuardDecision{Action: GuardRedirect, Target: target}
}

// Guard is the HTTP face of Decide: a middleware factory bound to the
// session context.
type Guard struct {
	sessions    *SessionContext
	signInPath  string
	placeholder router.HandlerFunc
	logger      Logger
}

// NewGuard builds a guard over the session context
func NewGuard(sessions *SessionContext) *Guard {
	g := &Guard{
		sessions:   sessions,
		signInPath: DefaultSignInPath,
		logger:     defLogger{},
	}
	g.placeholder = g.defaultPlaceholder
	return g
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithSignInPath overrides where unauthenticated navigations are sent
func (g *Guard) WithSignInPath(path string) *Guard {
	if path != "" {
		g.signInPath = path
	}
	return g
}

// WithPlaceholder overrides the handler used while the session context is
// still loading.
func (g *Guard) WithPlaceholder(h router.HandlerFunc) *Guard {
	if h != nil {
		g.placeholder = h
	}
	return g
}

// RequireRoles returns middleware that admits only the given roles. An
// empty set admits any authenticated user.
func (g *Guard) RequireRoles(allowed ...Role) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			snap := g.sessions.Snapshot()

			decision := Decide(snap, allowed, ctx.Path())
			if decision.Action == GuardRedirect && decision.Target == DefaultSignInPath {
				decision.Target = g.signInPath
			}

			switch decision.Action {
			case GuardPlaceholder:
				return g.placeholder(ctx)
			case GuardRedirect:
				g.logger.Debug("guard redirect %s -> %s", ctx.Path(), decision.Target)
				return ctx.Redirect(decision.Target, redirectStatus(ctx))
			default:
				return next(ctx)
			}
		}
	}
}

func (g *Guard) defaultPlaceholder(ctx router.Context) error {
	return ctx.Status(http.StatusOK).Render("loading", router.ViewContext{})
}

func redirectStatus(ctx router.Context) int {
	if ctx.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
