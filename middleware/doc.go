// Package middleware exposes HTTP adapters for protecting routes with a
// credo.Engine.
//
// # Guards
//
//   - [Guard] — full verification: signature, expiry, and the revocation
//     denylist.
//   - [RequireVerified] — Guard plus a repository check that the account
//     has confirmed its email.
//
// Each guard reads the Authorization header, calls Engine.Authenticate,
// and injects the resulting identity into the request context for
// [IdentityFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; every decision is delegated to
// the engine.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Touch the revocation store or repository beyond the Engine calls.
//   - Make authorization decisions beyond pass/reject.
package middleware
