package domain

// GateState is the outcome of evaluating one navigation attempt.
type GateState string

const (
	// GatePending applies while the session (or, for admin routes, the role
	// lookup) is still loading. It is always transient: once loading
	// completes a gate must settle on one of the terminal states.
	GatePending GateState = "pending"

	GateAllow           GateState = "allow"
	GateDenyToLogin     GateState = "deny_to_login"
	GateDenyToForbidden GateState = "deny_to_forbidden"
)

// RouteKind selects which gate variant applies to a route.
type RouteKind string

const (
	// RouteAnonymous marks routes such as login and register. Authenticated
	// visitors are let through as well: nothing redirects a signed-in user
	// away from the auth pages.
	RouteAnonymous RouteKind = "anonymous"

	RouteAuthenticated RouteKind = "authenticated"
	RouteAdmin         RouteKind = "admin"
)

// Default redirect targets for denied navigations.
const (
	LoginPath     = "/auth/login"
	ForbiddenPath = "/forbidden"
)

// GateDecision is what a gate returns for one navigation attempt. Decisions
// are recomputed from scratch on every evaluation; nothing is memoized
// across navigations.
type GateDecision struct {
	State GateState `json:"state"`
	// From is the originally attempted path, preserved so the login flow can
	// return the visitor afterwards.
	From string `json:"from"`
	// RedirectTo is set only for the deny states.
	RedirectTo string `json:"redirect_to,omitempty"`
}

// Allowed reports whether the navigation may render.
func (d GateDecision) Allowed() bool { return d.State == GateAllow }
