package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/authcore"
)

// Memory is a mutex-guarded in-process AccountStore for tests and
// examples. The single lock makes the email uniqueness check and the
// record insert one atomic step.
type Memory struct {
	mu      sync.Mutex
	byID    map[string]*authcore.Identity
	byEmail map[string]string
}

// NewMemory describes the newmemory operation and its observable behavior.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*authcore.Identity),
		byEmail: make(map[string]string),
	}
}

func (s *Memory) Create(_ context.Context, in authcore.NewIdentity) (*authcore.Identity, error) {
	email := authcore.NormalizeEmail(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return nil, &authcore.DuplicateKeyError{Field: "email", Value: email}
	}

	now := time.Now().UTC()
	roles := make([]authcore.Role, len(in.Roles))
	copy(roles, in.Roles)

	identity := &authcore.Identity{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: in.PasswordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.byID[identity.ID] = identity
	s.byEmail[email] = identity.ID

	return projection(identity, false), nil
}

func (s *Memory) FindByEmail(_ context.Context, email string, includeSecret bool) (*authcore.Identity, error) {
	email = authcore.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, authcore.ErrIdentityNotFound
	}
	return projection(s.byID[id], includeSecret), nil
}

func (s *Memory) FindByID(_ context.Context, id string, includeSecret bool) (*authcore.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrIdentityNotFound
	}
	return projection(identity, includeSecret), nil
}

func (s *Memory) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byID[id]
	if !ok {
		return authcore.ErrIdentityNotFound
	}
	identity.PasswordHash = passwordHash
	identity.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Memory) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := int64(len(s.byID))
	s.byID = make(map[string]*authcore.Identity)
	s.byEmail = make(map[string]string)
	return removed, nil
}

func (s *Memory) DeleteMany(_ context.Context, filter authcore.DeleteFilter) (int64, error) {
	if len(filter.Emails) == 0 && filter.Role == "" {
		return 0, nil
	}

	wantEmails := make(map[string]struct{}, len(filter.Emails))
	for _, e := range filter.Emails {
		wantEmails[authcore.NormalizeEmail(e)] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, identity := range s.byID {
		if len(wantEmails) > 0 {
			if _, ok := wantEmails[identity.Email]; !ok {
				continue
			}
		}
		if filter.Role != "" && !identity.HasRole(filter.Role) {
			continue
		}

		delete(s.byID, id)
		delete(s.byEmail, identity.Email)
		removed++
	}
	return removed, nil
}

func projection(identity *authcore.Identity, includeSecret bool) *authcore.Identity {
	roles := make([]authcore.Role, len(identity.Roles))
	copy(roles, identity.Roles)

	out := &authcore.Identity{
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
