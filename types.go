package authcore

import (
	"context"
	"strings"
	"time"
)

// Role is one value of the fixed access-control enumeration. Unknown role
// strings are rejected before persistence; the enumeration is closed.
type Role string

const (
	// RoleUser is the default role assigned to every new identity.
	RoleUser Role = "user"
	// RoleAdmin grants access to administrative operations.
	RoleAdmin Role = "admin"
	// RoleEditor grants catalog editing privileges in the surrounding system.
	RoleEditor Role = "editor"
)

// Roles lists the full enumeration in declaration order.
func Roles() []Role {
	return []Role{RoleUser, RoleAdmin, RoleEditor}
}

// ValidRole reports whether r is a member of the fixed enumeration.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleEditor:
		return true
	default:
		return false
	}
}

// DefaultRoles is the role set assigned when registration supplies none.
func DefaultRoles() []Role {
	return []Role{RoleUser}
}

// Identity is the stored account record. PasswordHash is populated only
// when a store lookup explicitly includes the secret; it is zero in every
// default projection and must never leave the engine's flows.
type Identity struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the identity holds any of the given roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, want := range roles {
		for _, have := range i.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Principal is the secret-free projection of an identity, returned to
// callers after registration, login, or token resolution.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Roles []Role `json:"roles"`
}

// HasRole reports whether the principal holds any of the given roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, want := range roles {
		for _, have := range p.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func principalOf(ident *Identity) Principal {
	roles := make([]Role, len(ident.Roles))
	copy(roles, ident.Roles)
	return Principal{
		ID:    ident.ID,
		Name:  ident.Name,
		Email: ident.Email,
		Roles: roles,
	}
}

// RegisterRequest is the input for [Engine.Register]. Roles is optional
// and defaults to [DefaultRoles].
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Roles    []Role
}

// AuthResult is returned by [Engine.Register] and [Engine.Login]. It
// carries the secret-free identity projection and a freshly issued
// session token.
type AuthResult struct {
	Identity  Principal
	Token     string
	ExpiresAt time.Time
}

// NewIdentity is the input for [AccountStore.Create]. The password hash
// is produced by the flow before the store is reached; stores never hash.
type NewIdentity struct {
	Name         string
	Email        string
	PasswordHash string
	Roles        []Role
}

// DeleteFilter selects identities for [AccountStore.DeleteMany]. Zero
// fields match nothing; set fields combine with AND.
type DeleteFilter struct {
	Emails []string
	Role   Role
}

// AccountStore is the persistence interface for identity records. The
// email uniqueness invariant is enforced by the store's own atomic index
// semantics, not by callers: two concurrent Create calls with the same
// email must yield exactly one success and one [DuplicateKeyError].
//
// Lookups exclude PasswordHash unless includeSecret is set. Missing
// records are reported as [ErrIdentityNotFound].
type AccountStore interface {
	Create(ctx context.Context, in NewIdentity) (*Identity, error)
	FindByEmail(ctx context.Context, email string, includeSecret bool) (*Identity, error)
	FindByID(ctx context.Context, id string, includeSecret bool) (*Identity, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// DeleteAll and DeleteMany are administrative bulk operations used by
	// out-of-core maintenance tooling. Both return the number of
	// identities removed.
	DeleteAll(ctx context.Context) (int64, error)
	DeleteMany(ctx context.Context, filter DeleteFilter) (int64, error)
}

// NormalizeEmail lowercases and trims an email address. Stores and flows
// key identities by the normalized form so the uniqueness invariant is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RoleStrings converts a role set to plain strings for token claims.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// ParseRoles converts claim strings back to roles, dropping unknown
// values rather than failing: the resolved identity, not the token
// snapshot, is authoritative for authorization.
func ParseRoles(values []string) []Role {
	out := make([]Role, 0, len(values))
	for _, v := range values {
		if r := Role(v); ValidRole(r) {
			out = append(out, r)
		}
	}
	return out
}
