package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAuthenticateNoToken(t *testing.T) {
	engine := newTestEngine(t, newMockStore())

	if _, err := engine.Authenticate(context.Background(), ""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	engine := newTestEngine(t, newMockStore())

	if _, err := engine.Authenticate(context.Background(), "not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	result := registerTestUser(t, engine, "alice@example.com", "Str0ngPass")

	expired, _, err := engine.jwtManager.IssueWithTTL(result.Identity.ID, RoleStrings(result.Identity.Roles), -time.Minute)
	if err != nil {
		t.Fatalf("IssueWithTTL failed: %v", err)
	}

	if _, err := engine.Authenticate(context.Background(), expired); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestAuthenticateTamperedToken(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	result := registerTestUser(t, engine, "alice@example.com", "Str0ngPass")

	tampered := result.Token[:len(result.Token)-2] + "xx"
	if _, err := engine.Authenticate(context.Background(), tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered token, got %v", err)
	}
}

func TestAuthenticateResolvesPrincipal(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	result := registerTestUser(t, engine, "alice@example.com", "Str0ngPass")

	principal, err := engine.Authenticate(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if principal.ID != result.Identity.ID {
		t.Errorf("resolved wrong identity %q", principal.ID)
	}
	if principal.Email != "alice@example.com" {
		t.Errorf("unexpected email %q", principal.Email)
	}
}

func TestAuthenticateVanishedSubject(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	result := registerTestUser(t, engine, "alice@example.com", "Str0ngPass")
	store.remove(result.Identity.ID)

	if _, err := engine.Authenticate(context.Background(), result.Token); !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestAuthorizeRoleGate(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	user := registerTestUser(t, engine, "user@example.com", "Str0ngPass")
	admin := registerTestUser(t, engine, "admin@example.com", "Str0ngPass", RoleAdmin)

	if _, err := engine.Authorize(context.Background(), user.Token, RoleAdmin); !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole, got %v", err)
	}

	principal, err := engine.Authorize(context.Background(), admin.Token, RoleAdmin)
	if err != nil {
		t.Fatalf("admin should pass the gate: %v", err)
	}
	if !principal.HasRole(RoleAdmin) {
		t.Error("resolved principal lost the admin role")
	}
}

func TestAuthorizeAnyOfRoles(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	editor := registerTestUser(t, engine, "editor@example.com", "Str0ngPass", RoleEditor)

	if _, err := engine.Authorize(context.Background(), editor.Token, RoleAdmin, RoleEditor); err != nil {
		t.Fatalf("any-of semantics should admit the editor: %v", err)
	}
}

func TestAuthorizeUsesLiveRolesNotTokenSnapshot(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	admin := registerTestUser(t, engine, "admin@example.com", "Str0ngPass", RoleAdmin)

	// Demote after the token was issued. The stale admin claim inside
	// the token must not grant access.
	store.setRoles(admin.Identity.ID, []Role{RoleUser})

	if _, err := engine.Authorize(context.Background(), admin.Token, RoleAdmin); !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected demotion to take effect immediately, got %v", err)
	}
}

func TestAuthorizeNoRolesMeansAuthenticated(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	user := registerTestUser(t, engine, "user@example.com", "Str0ngPass")

	if _, err := engine.Authorize(context.Background(), user.Token); err != nil {
		t.Fatalf("no role requirement should pass any authenticated user: %v", err)
	}
}

func TestAuthenticateMetrics(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)
	engine.metrics = NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	result := registerTestUser(t, engine, "alice@example.com", "Str0ngPass")

	_, _ = engine.Authenticate(context.Background(), "")
	_, _ = engine.Authenticate(context.Background(), "garbage")
	_, _ = engine.Authenticate(context.Background(), result.Token)

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricTokenRejected] != 2 {
		t.Errorf("expected 2 rejections, got %d", snap.Counters[MetricTokenRejected])
	}

	var observed uint64
	for _, count := range snap.Histograms[MetricAuthenticateLatency] {
		observed += count
	}
	if observed != 3 {
		t.Errorf("expected 3 latency observations, got %d", observed)
	}
}
