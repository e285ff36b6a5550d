package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shelfwise/authcore"
)

const pgUniqueViolation = "23505"

const accountsSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	roles         TEXT[] NOT NULL DEFAULT '{user}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_lower_idx ON accounts (lower(email));
`

// Postgres is an AccountStore backed by a single accounts table. Email
// uniqueness is enforced by a case-insensitive unique index so the race
// between concurrent Create calls is settled inside the database.
type Postgres struct {
	db *sql.DB
}

// NewPostgres describes the newpostgres operation and its observable behavior.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the accounts table and its unique email index if
// they do not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, accountsSchema)
	return err
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Postgres) Create(ctx context.Context, in authcore.NewIdentity) (*authcore.Identity, error) {
	email := authcore.NormalizeEmail(in.Email)
	id := uuid.NewString()
	now := time.Now().UTC()

	const query = `
		INSERT INTO accounts (id, name, email, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`

	_, err := s.db.ExecContext(ctx, query,
		id,
		in.Name,
		email,
		in.PasswordHash,
		pq.Array(authcore.RoleStrings(in.Roles)),
		now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, &authcore.DuplicateKeyError{Field: "email", Value: email}
		}
		return nil, err
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
func (s *Postgres) FindByEmail(ctx context.Context, email string, includeSecret bool) (*authcore.Identity, error) {
	email = authcore.NormalizeEmail(email)

	const query = `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM accounts
		WHERE lower(email) = $1`

	return s.scanOne(s.db.QueryRowContext(ctx, query, email), includeSecret)
}

// FindByID describes the findbyid operation and its observable behavior.
//
// FindByID may return an error when input validation, dependency calls, or security checks fail.
// FindByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Postgres) FindByID(ctx context.Context, id string, includeSecret bool) (*authcore.Identity, error) {
	const query = `
		SELECT id, name, email, password_hash, roles, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	return s.scanOne(s.db.QueryRowContext(ctx, query, id), includeSecret)
}

// UpdatePasswordHash describes the updatepasswordhash operation and its observable behavior.
//
// UpdatePasswordHash may return an error when input validation, dependency calls, or security checks fail.
// UpdatePasswordHash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Postgres) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE accounts
		SET password_hash = $2, updated_at = now()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return authcore.ErrIdentityNotFound
	}
	return nil
}

// DeleteAll describes the deleteall operation and its observable behavior.
//
// DeleteAll may return an error when input validation, dependency calls, or security checks fail.
// DeleteAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Postgres) DeleteAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteMany describes the deletemany operation and its observable behavior.
//
// DeleteMany may return an error when input validation, dependency calls, or security checks fail.
// DeleteMany does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Postgres) DeleteMany(ctx context.Context, filter authcore.DeleteFilter) (int64, error) {
	if len(filter.Emails) == 0 && filter.Role == "" {
		return 0, nil
	}

	query := `DELETE FROM accounts WHERE 1=1`
	args := []interface{}{}

	if len(filter.Emails) > 0 {
		normalized := make([]string, len(filter.Emails))
		for i, e := range filter.Emails {
			normalized[i] = authcore.NormalizeEmail(e)
		}
		args = append(args, pq.Array(normalized))
		query += ` AND lower(email) = ANY($1)`
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		if len(args) == 1 {
			query += ` AND $1 = ANY(roles)`
		} else {
			query += ` AND $2 = ANY(roles)`
		}
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Postgres) scanOne(row *sql.Row, includeSecret bool) (*authcore.Identity, error) {
	var (
		identity authcore.Identity
		hash     string
		roles    pq.StringArray
	)

	err := row.Scan(
		&identity.ID,
		&identity.Name,
		&identity.Email,
		&hash,
		&roles,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrIdentityNotFound
		}
		return nil, err
	}

	identity.Roles = authcore.ParseRoles(roles)
	if includeSecret {
		identity.PasswordHash = hash
	}
	return &identity, nil
}
