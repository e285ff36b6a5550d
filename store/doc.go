// Package store provides AccountStore implementations backed by Redis,
// PostgreSQL, and process memory.
//
// # Implementations
//
//   - [Redis] — hash-per-identity records with an atomic email index, suited
//     to deployments already carrying a Redis dependency.
//   - [Postgres] — a single accounts table with a case-insensitive unique
//     email index, using database/sql and lib/pq.
//   - [Memory] — mutex-guarded maps for tests and examples.
//
// All three enforce the same contract: email uniqueness is atomic under
// concurrent Create calls, lookups omit the password hash unless asked for
// it, and misses surface as authcore.ErrIdentityNotFound.
//
// # What this package must NOT do
//
//   - Hash passwords — stores persist the hash they are given.
//   - Emit audit events or metrics; that is the Engine's job.
package store
