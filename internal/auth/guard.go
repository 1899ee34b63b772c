package auth

// Decision is the terminal (or pending) outcome of a route guard
// evaluation.
type Decision int

const (
	// DecisionPending means auth or role resolution is still outstanding.
	// Nothing may be rendered: not the guarded page and not a login
	// prompt, so protected content never flashes before the real state
	// is known.
	DecisionPending Decision = iota

	// DecisionAllow renders the guarded page.
	DecisionAllow

	// DecisionDenyNotAuthenticated redirects to the login page,
	// preserving the originally requested location.
	DecisionDenyNotAuthenticated

	// DecisionDenyNotAuthorized redirects to the dashboard with a
	// human-readable reason.
	DecisionDenyNotAuthorized
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDenyNotAuthenticated:
		return "deny-not-authenticated"
	case DecisionDenyNotAuthorized:
		return "deny-not-authorized"
	case DecisionPending:
		return "pending"
	default:
		return "pending"
	}
}

// AuthState is the guard's view of the current session. The Resolved
// flags model the two suspension points (session lookup and role
// resolution); a decision is never derived from a partially known state.
type AuthState struct {
	// AuthResolved is true once the session status is known.
	AuthResolved bool
	// ActorID identifies the signed-in actor; empty means anonymous.
	ActorID string
	// RoleResolved is true once the actor's role has been read.
	RoleResolved bool
	// Role is the actor's role, valid only when RoleResolved.
	Role Role
	// PermsResolved is true once the permission map lookup finished
	// (successfully or not).
	PermsResolved bool
	// Perms is the actor's permission map, valid only when PermsResolved
	// and !FetchFailed.
	Perms PermissionMap
	// FetchFailed is set when the permission record could not be read.
	// It always resolves as deny, never as allow.
	FetchFailed bool
}

// Evaluate runs the guard state machine for a route:
//
//	PENDING_AUTH -> DENY_NOT_AUTHENTICATED   no actor after auth resolves
//	PENDING_AUTH -> PENDING_PERMISSION       actor present, role pending
//	PENDING_PERMISSION -> ALLOW              resolver grants
//	PENDING_PERMISSION -> DENY_NOT_AUTHORIZED resolver denies or fetch failed
//
// The main admin never waits on the permission fetch; the role alone
// decides.
func Evaluate(st AuthState, route string) Decision {
	if !st.AuthResolved {
		return DecisionPending
	}

	if st.ActorID == "" {
		return DecisionDenyNotAuthenticated
	}

	if !st.RoleResolved {
		return DecisionPending
	}

	if st.Role == RoleMainAdmin {
		return DecisionAllow
	}

	// unmapped routes stay open for every signed-in actor and never
	// consult the permission map, so neither a pending nor a failed
	// fetch can matter here; see CanAccessRoute
	if _, mapped := RouteFeature(route); !mapped {
		return DecisionAllow
	}

	// only a delegated admin has a permission map to wait for; any
	// other role is denied every mapped admin route outright
	if st.Role != RoleAdmin {
		return DecisionDenyNotAuthorized
	}

	if st.FetchFailed {
		return DecisionDenyNotAuthorized
	}

	if !st.PermsResolved {
		return DecisionPending
	}

	if CanAccessRoute(st.Role, st.Perms, route) {
		return DecisionAllow
	}

	return DecisionDenyNotAuthorized
}
