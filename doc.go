// Package credo is a credential-and-session management core meant to be
// embedded inside a larger API: registration with email verification,
// login, refresh-token rotation with reuse detection, logout with token
// revocation, and the forgot/reset password flows.
//
// The package is designed for concurrent server workloads: [Engine]
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// credo is the orchestration surface. It owns the token lifecycle, the
// password policy, and the revocation denylist. Persistence, outbound
// email, and the HTTP transport are collaborators injected behind the
// [Repository], [mail.Sender], and [middleware] seams; the core never
// reaches around them.
//
// # What this package must NOT do
//
//   - Reveal through any response whether an email address is registered,
//     outside the deliberate registration-conflict case.
//   - Persist tokens as rows. Tokens are bearer credentials; the only
//     persisted trace is the single refresh-token hash on the account and
//     the expiring revocation entries.
//   - Roll back an issued token because a mail send failed; resend flows
//     exist to recover.
package credo
