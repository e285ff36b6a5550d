// Package authcore provides the credential management and session
// authorization core for account-backed services: salted one-way password
// hashing, HS256 session tickets, and role-gated access checks against a
// pluggable account store.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the [AccountStore] contract, and value types (Principal, AuthResult,
// MetricsSnapshot, etc.). Internal coordination — reset challenge encoding,
// audit dispatch — lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose stored password hashes on any authenticated read path.
//   - Log or emit plaintext passwords, password hashes, or the signing secret.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports authcore (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path. Signature verification happens before any
// storage round-trip, and a request that fails verification costs no I/O at
// all. Login, Register, and password operations are allowed one storage
// round-trip per step.
package authcore
