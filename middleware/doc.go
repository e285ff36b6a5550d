// Package middleware exposes HTTP middleware adapters for role-gated access
// enforcement built on top of authcore.Engine authorization.
//
// # Guards
//
//   - [Guard] — authentication plus an optional any-of role requirement.
//   - [RequireAuth] — authentication only.
//   - [RequireRole] — authentication plus roles.
//
// Each guard reads the Authorization header, calls Engine.Authorize, and
// injects the resolved principal into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authorize.
//
// # What this package must NOT do
//
//   - Parse or create session tokens directly (delegates to Engine).
//   - Trust the role snapshot inside a token (the Engine resolves live roles).
//   - Make authorization decisions beyond pass/reject from Engine.Authorize.
package middleware
