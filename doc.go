// Package identity is the session and access-control core of the Qiesto
// platform: credential verification, profile-aware sessions, role-based
// route guarding, and inactivity handling.
//
// Session context:
//   - SessionContext is the process-wide holder of the current AuthUser. It
//     has exactly one writer (an internal apply loop) and any number of
//     subscribers. Auth-state-change events are applied in emission order;
//     a monotonic sequence number guarantees that a slow initial session
//     check can never clobber newer listener-driven state.
//
// Profiles:
//   - Profiles carry the role (participant or partner) and approval status
//     for an account. When a profile cannot be resolved the ProfileResolver
//     degrades to least privilege (participant/pending) instead of failing
//     the render path; the downgrade is logged and recorded as activity.
//   - ProfileStateMachine centralizes status transitions (pending through
//     approved, suspended, archived) so partner approval follows the same
//     invariants everywhere.
//
// Route guarding:
//   - Guard turns a session snapshot plus an allowed role set into a
//     decision: allow, placeholder while loading, redirect to sign-in, or
//     redirect to the role's own home. Redirect targets are the user's home
//     routes, never an error page, and never a route the same restriction
//     would bounce again.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter used by the credential
//     store, resolver, and state machine. Sink errors are logged, never
//     propagated, so hosts can forward events to a database or queue
//     without blocking authentication.
package identity
