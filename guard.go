package goSessionSync

// Decision is the access-guard verdict for a role-restricted surface.
type Decision uint8

const (
	// DecisionPending means the provider has not resolved its initial
	// load. Render a neutral waiting state; never optimistically allow or
	// deny, or a flash of protected content (or a false redirect) leaks
	// out before the load resolves.
	DecisionPending Decision = iota
	// DecisionAllow grants access.
	DecisionAllow
	// DecisionRedirectLogin means no session exists; send the user to
	// login.
	DecisionRedirectLogin
	// DecisionRedirectDenied means a session exists but its role does not
	// satisfy the requirement.
	DecisionRedirectDenied
)

// String describes the decision for logs and tests.
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectDenied:
		return "redirect_denied"
	default:
		return "invalid"
	}
}

// Decide is the pure access predicate behind every role-restricted route.
// An empty required set guards an authenticated-only surface. Re-evaluate
// on every version stamp change while the guarded surface is mounted, so a
// role downgrade applied by another context demotes access without a
// reload.
//
// Unrecognized role strings satisfy no required set: a corrupted or
// unexpected role value is never interpreted as elevated privilege.
func Decide(required RoleSet, snap Snapshot) Decision {
	switch snap.State {
	case StateUninitialized, StateLoading:
		return DecisionPending
	}

	if snap.Record == nil {
		return DecisionRedirectLogin
	}

	if required.Empty() {
		return DecisionAllow
	}

	role, ok := ParseRole(snap.Record.Role)
	if !ok || !required.Has(role) {
		return DecisionRedirectDenied
	}

	return DecisionAllow
}
