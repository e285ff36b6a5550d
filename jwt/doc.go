// Package jwt manages session-ticket issuance and verification using an
// HS256 shared secret and strict validation semantics suitable for
// stateless authorization paths.
package jwt
