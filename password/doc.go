// Package password implements password hashing and verification with bcrypt.
//
// # Output format
//
// Hashes use the modular crypt format emitted by golang.org/x/crypto/bcrypt:
//
//	$2a$<cost>$<salt+hash>
//
// The salt is generated per call, so hashing the same password twice yields
// different strings. [Bcrypt.NeedsUpgrade] reports whether a stored hash was
// produced with a lower cost than currently configured so the caller can
// re-hash on the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length,
// character classes, reuse) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
