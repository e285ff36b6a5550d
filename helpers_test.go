package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shelfwise/authcore/jwt"
	"github.com/shelfwise/authcore/password"
)

var testSecret = []byte("test-signing-secret")

type mockStore struct {
	mu      sync.Mutex
	byID    map[string]*Identity
	byEmail map[string]string

	createErr      error
	updateErr      error
	findByEmailErr error

	createCalls         int
	findByEmailCalls    int
	findByIDCalls       int
	updatePasswordCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		byID:    make(map[string]*Identity),
		byEmail: make(map[string]string),
	}
}

func (m *mockStore) Create(_ context.Context, in NewIdentity) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return nil, m.createErr
	}

	email := NormalizeEmail(in.Email)
	if _, taken := m.byEmail[email]; taken {
		return nil, &DuplicateKeyError{Field: "email", Value: email}
	}

	now := time.Now().UTC()
	roles := make([]Role, len(in.Roles))
	copy(roles, in.Roles)

	identity := &Identity{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: in.PasswordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.byID[identity.ID] = identity
	m.byEmail[email] = identity.ID

	return m.project(identity, false), nil
}

func (m *mockStore) FindByEmail(_ context.Context, email string, includeSecret bool) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByEmailCalls++

	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}

	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return m.project(m.byID[id], includeSecret), nil
}

func (m *mockStore) FindByID(_ context.Context, id string, includeSecret bool) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByIDCalls++

	identity, ok := m.byID[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return m.project(identity, includeSecret), nil
}

func (m *mockStore) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatePasswordCalls++

	if m.updateErr != nil {
		return m.updateErr
	}

	identity, ok := m.byID[id]
	if !ok {
		return ErrIdentityNotFound
	}
	identity.PasswordHash = passwordHash
	identity.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockStore) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := int64(len(m.byID))
	m.byID = make(map[string]*Identity)
	m.byEmail = make(map[string]string)
	return removed, nil
}

func (m *mockStore) DeleteMany(_ context.Context, filter DeleteFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(filter.Emails) == 0 && filter.Role == "" {
		return 0, nil
	}

	want := make(map[string]struct{}, len(filter.Emails))
	for _, e := range filter.Emails {
		want[NormalizeEmail(e)] = struct{}{}
	}

	var removed int64
	for id, identity := range m.byID {
		if len(want) > 0 {
			if _, ok := want[identity.Email]; !ok {
				continue
			}
		}
		if filter.Role != "" && !identity.HasRole(filter.Role) {
			continue
		}
		delete(m.byID, id)
		delete(m.byEmail, identity.Email)
		removed++
	}
	return removed, nil
}

// setRoles swaps the stored role set without touching the password hash.
func (m *mockStore) setRoles(id string, roles []Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if identity, ok := m.byID[id]; ok {
		identity.Roles = roles
	}
}

// remove drops an identity entirely.
func (m *mockStore) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if identity, ok := m.byID[id]; ok {
		delete(m.byEmail, identity.Email)
		delete(m.byID, id)
	}
}

func (m *mockStore) project(identity *Identity, includeSecret bool) *Identity {
	roles := make([]Role, len(identity.Roles))
	copy(roles, identity.Roles)

	out := &Identity{
		ID:        identity.ID,
		Name:      identity.Name,
		Email:     identity.Email,
		Roles:     roles,
		CreatedAt: identity.CreatedAt,
		UpdatedAt: identity.UpdatedAt,
	}
	if includeSecret {
		out.PasswordHash = identity.PasswordHash
	}
	return out
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// newTestEngine wires an Engine directly with a low bcrypt cost so
// individual tests stay fast.
func newTestEngine(t *testing.T, store AccountStore) *Engine {
	t.Helper()

	hasher, err := password.NewBcrypt(password.Config{Cost: 4})
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:   testSecret,
		Lifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("jwt.NewManager failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	cfg.Password.Cost = 4

	return &Engine{
		config:       cfg,
		store:        store,
		passwordHash: hasher,
		jwtManager:   jwtManager,
	}
}

// newResetEngine adds a redis-backed reset store to a test engine.
func newResetEngine(t *testing.T, store AccountStore) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine := newTestEngine(t, store)
	engine.config.Reset.Enabled = true
	engine.resetStore = newPasswordResetStore(rdb, "ar")

	return engine, mr
}

func registerTestUser(t *testing.T, engine *Engine, email, plaintext string, roles ...Role) *AuthResult {
	t.Helper()

	result, err := engine.Register(context.Background(), RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: plaintext,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return result
}
