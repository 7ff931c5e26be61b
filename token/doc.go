// Package token issues and verifies the four purpose-bound token kinds
// (access, refresh, email-verify, reset) with per-purpose secrets and TTLs.
//
// # Purpose isolation
//
// Every token carries an explicit purpose claim and is signed with that
// purpose's own secret. A leaked verification token can therefore never be
// replayed as an access token: the cross-purpose verification fails on the
// signature before the claim is even inspected.
//
// # Error contract
//
// [Codec.Verify] returns exactly two failure kinds: [ErrTokenExpired] for a
// correctly signed token past its expiry, and [ErrTokenMalformed] for
// everything else. Callers map the first to a "please request a new link"
// style message and the second to a generic rejection.
//
// # What this package must NOT do
//
//   - Touch persistence or the revocation store — tokens are bearer
//     credentials, never rows.
//   - Import any other credo package.
package token
