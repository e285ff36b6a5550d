package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shelfwise/authcore"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultRedisPrefix = "acct"

// createIdentityScript claims the email index and writes the identity
// record in one atomic step. Returns 0 when the email is already taken.
const createIdentityScript = `
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[2],
  "id", ARGV[1],
  "name", ARGV[2],
  "email", ARGV[3],
  "password_hash", ARGV[4],
  "roles", ARGV[5],
  "created_at", ARGV[6],
  "updated_at", ARGV[6])
return 1
`

var createIdentityLua = redis.NewScript(createIdentityScript)

// deleteIdentityScript removes an identity record and its email index
// entry together. Returns 1 when the record existed.
const deleteIdentityScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("DEL", KEYS[2])
return existed
`

var deleteIdentityLua = redis.NewScript(deleteIdentityScript)

// Redis is an AccountStore backed by a Redis hash per identity plus a
// string key per email for the uniqueness index.
type Redis struct {
	redis  *redis.Client
	prefix string
}

// NewRedis describes the newredis operation and its observable behavior.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Redis) idKey(id string) string {
	return s.prefix + ":id:" + id
}

func (s *Redis) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) Create(ctx context.Context, in authcore.NewIdentity) (*authcore.Identity, error) {
	email := authcore.NormalizeEmail(in.Email)
	id := uuid.NewString()
	now := time.Now().UTC()

	claimed, err := createIdentityLua.Run(
		ctx,
		s.redis,
		[]string{s.emailKey(email), s.idKey(id)},
		id,
		in.Name,
		email,
		in.PasswordHash,
		joinRoles(in.Roles),
		now.Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if claimed == 0 {
		return nil, &authcore.DuplicateKeyError{Field: "email", Value: email}
	}

	roles := make([]authcore.Role, len(in.Roles))
	copy(roles, in.Roles)

	return &authcore.Identity{
		ID:        id,
		Name:      in.Name,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FindByEmail describes the findbyemail operation and its observable behavior.
//
// FindByEmail may return an error when input validation, dependency calls, or security checks fail.
// FindByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) FindByEmail(ctx context.Context, email string, includeSecret bool) (*authcore.Identity, error) {
	email = authcore.NormalizeEmail(email)

	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, authcore.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return s.FindByID(ctx, id, includeSecret)
}

// FindByID describes the findbyid operation and its observable behavior.
//
// FindByID may return an error when input validation, dependency calls, or security checks fail.
// FindByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) FindByID(ctx context.Context, id string, includeSecret bool) (*authcore.Identity, error) {
	fields, err := s.redis.HGetAll(ctx, s.idKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, authcore.ErrIdentityNotFound
	}

	return identityFromHash(fields, includeSecret)
}

// UpdatePasswordHash describes the updatepasswordhash operation and its observable behavior.
//
// UpdatePasswordHash may return an error when input validation, dependency calls, or security checks fail.
// UpdatePasswordHash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	key := s.idKey(id)

	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if exists == 0 {
		return authcore.ErrIdentityNotFound
	}

	err = s.redis.HSet(ctx, key,
		"password_hash", passwordHash,
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteAll describes the deleteall operation and its observable behavior.
//
// DeleteAll may return an error when input validation, dependency calls, or security checks fail.
// DeleteAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) DeleteAll(ctx context.Context) (int64, error) {
	ids, err := s.scanIDs(ctx)
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, id := range ids {
		n, err := s.deleteOne(ctx, id)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

// DeleteMany describes the deletemany operation and its observable behavior.
//
// DeleteMany may return an error when input validation, dependency calls, or security checks fail.
// DeleteMany does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) DeleteMany(ctx context.Context, filter authcore.DeleteFilter) (int64, error) {
	if len(filter.Emails) == 0 && filter.Role == "" {
		return 0, nil
	}

	wantEmails := make(map[string]struct{}, len(filter.Emails))
	for _, e := range filter.Emails {
		wantEmails[authcore.NormalizeEmail(e)] = struct{}{}
	}

	ids, err := s.scanIDs(ctx)
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, id := range ids {
		identity, err := s.FindByID(ctx, id, false)
		if err != nil {
			if errors.Is(err, authcore.ErrIdentityNotFound) {
				continue
			}
			return removed, err
		}

		if len(wantEmails) > 0 {
			if _, ok := wantEmails[identity.Email]; !ok {
				continue
			}
		}
		if filter.Role != "" && !identity.HasRole(filter.Role) {
			continue
		}

		n, err := s.deleteOne(ctx, id)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

func (s *Redis) deleteOne(ctx context.Context, id string) (int64, error) {
	identity, err := s.FindByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, authcore.ErrIdentityNotFound) {
			return 0, nil
		}
		return 0, err
	}

	existed, err := deleteIdentityLua.Run(
		ctx,
		s.redis,
		[]string{s.idKey(id), s.emailKey(identity.Email)},
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return existed, nil
}

func (s *Redis) scanIDs(ctx context.Context) ([]string, error) {
	pattern := s.prefix + ":id:*"
	keyPrefixLen := len(s.prefix + ":id:")

	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, key := range keys {
			ids = append(ids, key[keyPrefixLen:])
		}
		cursor = next
		if cursor == 0 {
			return ids, nil
		}
	}
}

func identityFromHash(fields map[string]string, includeSecret bool) (*authcore.Identity, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, errors.New("identity record corrupt: created_at")
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return nil, errors.New("identity record corrupt: updated_at")
	}

	identity := &authcore.Identity{
		ID:        fields["id"],
		Name:      fields["name"],
		Email:     fields["email"],
		Roles:     splitRoles(fields["roles"]),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if includeSecret {
		identity.PasswordHash = fields["password_hash"]
	}
	return identity, nil
}

func joinRoles(roles []authcore.Role) string {
	return strings.Join(authcore.RoleStrings(roles), ",")
}

func splitRoles(joined string) []authcore.Role {
	if joined == "" {
		return nil
	}
	return authcore.ParseRoles(strings.Split(joined, ","))
}
