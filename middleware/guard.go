package middleware

import (
	"context"
	"net/http"
	"strconv"

	goSessionSync "github.com/MrEthical07/goSessionSync"
)

type snapshotContextKey struct{}

// SnapshotFromContext returns the provider snapshot the guard attached to
// an allowed request.
func SnapshotFromContext(ctx context.Context) (goSessionSync.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotContextKey{}).(goSessionSync.Snapshot)
	return snap, ok
}

// GuardOptions tunes how access decisions map onto HTTP responses.
type GuardOptions struct {
	// LoginURL is the redirect target for DecisionRedirectLogin.
	// Defaults to "/login".
	LoginURL string
	// PendingRetryAfterSeconds is the Retry-After value sent with the
	// neutral 503 while the provider's initial load is unresolved.
	// Defaults to 1.
	PendingRetryAfterSeconds int
	// DeniedHandler, when set, serves DecisionRedirectDenied responses
	// instead of the default 403.
	DeniedHandler http.Handler
}

// Guard wraps a handler behind the access predicate. The decision is
// re-evaluated per request against the provider's live snapshot, so a role
// downgrade applied by another execution context demotes access on the
// very next request.
//
// Pending renders a neutral waiting response until the provider's initial
// load resolves, never an optimistic allow or deny.
func Guard(provider *goSessionSync.Provider, required goSessionSync.RoleSet, opts GuardOptions) func(http.Handler) http.Handler {
	loginURL := opts.LoginURL
	if loginURL == "" {
		loginURL = "/login"
	}
	retryAfter := opts.PendingRetryAfterSeconds
	if retryAfter <= 0 {
		retryAfter = 1
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if provider == nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}

			snap := provider.Snapshot()
			switch goSessionSync.Decide(required, snap) {
			case goSessionSync.DecisionPending:
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "session loading", http.StatusServiceUnavailable)
			case goSessionSync.DecisionRedirectLogin:
				http.Redirect(w, r, loginURL, http.StatusSeeOther)
			case goSessionSync.DecisionRedirectDenied:
				if opts.DeniedHandler != nil {
					opts.DeniedHandler.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			case goSessionSync.DecisionAllow:
				ctx := context.WithValue(r.Context(), snapshotContextKey{}, snap)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
