package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	goSessionSync "github.com/MrEthical07/goSessionSync"
	"github.com/MrEthical07/goSessionSync/session"
)

func newGuardedProvider(t *testing.T) *goSessionSync.Provider {
	t.Helper()
	p, err := goSessionSync.New().
		WithStore(session.NewMemoryStore("ss", "")).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func startProvider(t *testing.T, p *goSessionSync.Provider) {
	t.Helper()
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func login(t *testing.T, p *goSessionSync.Provider, role string) {
	t.Helper()
	rec := &goSessionSync.SessionRecord{UserID: "u-1", Email: "u@example.com", Role: role}
	if err := p.Establish(context.Background(), rec); err != nil {
		t.Fatalf("establish: %v", err)
	}
}

func serve(p *goSessionSync.Provider, required goSessionSync.RoleSet, opts GuardOptions) (*httptest.ResponseRecorder, bool) {
	var reached bool
	handler := Guard(p, required, opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard", nil))
	return rec, reached
}

func TestGuardPendingBeforeStart(t *testing.T) {
	p := newGuardedProvider(t)

	rec, reached := serve(p, goSessionSync.RoleSetOf(goSessionSync.RoleManager), GuardOptions{})
	if reached {
		t.Fatal("handler must not run while the load is unresolved")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After = %q, want \"1\"", rec.Header().Get("Retry-After"))
	}
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	p := newGuardedProvider(t)
	startProvider(t, p)

	rec, reached := serve(p, goSessionSync.RoleSetOf(goSessionSync.RoleManager), GuardOptions{LoginURL: "/signin"})
	if reached {
		t.Fatal("handler must not run for anonymous requests")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/signin" {
		t.Fatalf("Location = %q, want /signin", loc)
	}
}

func TestGuardDeniesInsufficientRole(t *testing.T) {
	p := newGuardedProvider(t)
	startProvider(t, p)
	login(t, p, "customer")

	rec, reached := serve(p, goSessionSync.RoleSetOf(goSessionSync.RoleManager, goSessionSync.RoleSystemAdmin), GuardOptions{})
	if reached {
		t.Fatal("handler must not run for a denied role")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestGuardCustomDeniedHandler(t *testing.T) {
	p := newGuardedProvider(t)
	startProvider(t, p)
	login(t, p, "customer")

	opts := GuardOptions{
		DeniedHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	}
	rec, _ := serve(p, goSessionSync.RoleSetOf(goSessionSync.RoleManager), opts)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want custom denied status", rec.Code)
	}
}

func TestGuardAllowsAndExposesSnapshot(t *testing.T) {
	p := newGuardedProvider(t)
	startProvider(t, p)
	login(t, p, "gerente")

	var snap goSessionSync.Snapshot
	var ok bool
	handler := Guard(p, goSessionSync.RoleSetOf(goSessionSync.RoleManager), GuardOptions{})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, ok = SnapshotFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !ok || snap.Record == nil || snap.Record.Role != "gerente" {
		t.Fatalf("snapshot not exposed to the handler: ok=%v snap=%+v", ok, snap)
	}
}

func TestGuardReEvaluatesPerRequest(t *testing.T) {
	p := newGuardedProvider(t)
	startProvider(t, p)
	login(t, p, "manager")

	required := goSessionSync.RoleSetOf(goSessionSync.RoleManager)
	if rec, reached := serve(p, required, GuardOptions{}); !reached || rec.Code != http.StatusOK {
		t.Fatalf("expected allow before downgrade, got %d", rec.Code)
	}

	// A role downgrade demotes access on the very next request.
	login(t, p, "customer")
	if rec, reached := serve(p, required, GuardOptions{}); reached || rec.Code != http.StatusForbidden {
		t.Fatalf("expected deny after downgrade, got %d", rec.Code)
	}
}

func TestSnapshotFromContextAbsent(t *testing.T) {
	if _, ok := SnapshotFromContext(context.Background()); ok {
		t.Fatal("bare context must not carry a snapshot")
	}
}
