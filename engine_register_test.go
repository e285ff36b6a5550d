package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterSuccess(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	result, err := engine.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.COM",
		Password: "Str0ngPass",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if result.Identity.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", result.Identity.Email)
	}
	if len(result.Identity.Roles) != 1 || result.Identity.Roles[0] != RoleUser {
		t.Errorf("expected default role set, got %v", result.Identity.Roles)
	}
	if result.Token == "" {
		t.Error("expected a session token")
	}
	if result.ExpiresAt.IsZero() {
		t.Error("expected an expiry timestamp")
	}

	claims, err := engine.jwtManager.Parse(result.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != result.Identity.ID {
		t.Errorf("token subject %q does not match identity %q", claims.Subject, result.Identity.ID)
	}
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	result := registerTestUser(t, engine, "alice@example.com", "Str0ngPass")

	stored, err := store.FindByID(context.Background(), result.Identity.ID, true)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.PasswordHash == "" {
		t.Fatal("expected a stored hash")
	}
	if stored.PasswordHash == "Str0ngPass" {
		t.Fatal("plaintext must never be stored")
	}

	ok, err := engine.passwordHash.Verify("Str0ngPass", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify the original password: ok=%v err=%v", ok, err)
	}
}

func TestRegisterExplicitRoles(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	result := registerTestUser(t, engine, "ed@example.com", "Str0ngPass", RoleEditor, RoleAdmin)

	if len(result.Identity.Roles) != 2 {
		t.Fatalf("expected explicit roles to survive, got %v", result.Identity.Roles)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	_, err := engine.Register(context.Background(), RegisterRequest{
		Name:     "",
		Email:    "bad",
		Password: "weak",
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if store.createCalls != 0 {
		t.Error("invalid input must never reach the store")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)

	registerTestUser(t, engine, "alice@example.com", "Str0ngPass")

	_, err := engine.Register(context.Background(), RegisterRequest{
		Name:     "Impostor",
		Email:    "ALICE@example.com",
		Password: "An0therPass",
	})

	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateKeyError, got %v", err)
	}
	if dup.Field != "email" {
		t.Errorf("expected email conflict, got %q", dup.Field)
	}
}

func TestRegisterDuplicateFromStoreRace(t *testing.T) {
	// The pre-check can miss a concurrent insert; the store's own
	// duplicate error must surface unchanged.
	store := newMockStore()
	engine := newTestEngine(t, store)

	store.createErr = &DuplicateKeyError{Field: "email", Value: "alice@example.com"}

	_, err := engine.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "Str0ngPass",
	})

	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateKeyError, got %v", err)
	}
}

func TestRegisterMetrics(t *testing.T) {
	store := newMockStore()
	engine := newTestEngine(t, store)
	engine.metrics = NewMetrics(MetricsConfig{Enabled: true})

	registerTestUser(t, engine, "alice@example.com", "Str0ngPass")

	_, _ = engine.Register(context.Background(), RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "Str0ngPass",
	})
	_, _ = engine.Register(context.Background(), RegisterRequest{
		Name:     "",
		Email:    "bad",
		Password: "weak",
	})

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricRegisterSuccess] != 1 {
		t.Errorf("expected 1 success, got %d", snap.Counters[MetricRegisterSuccess])
	}
	if snap.Counters[MetricRegisterDuplicate] != 1 {
		t.Errorf("expected 1 duplicate, got %d", snap.Counters[MetricRegisterDuplicate])
	}
	if snap.Counters[MetricRegisterInvalid] != 1 {
		t.Errorf("expected 1 invalid, got %d", snap.Counters[MetricRegisterInvalid])
	}
}
