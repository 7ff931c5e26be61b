// Package password implements the password hashing primitive with Argon2id.
//
// # Output format
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the cost parameters out of the stored hash, so old
// hashes keep verifying after a cost bump; [Argon2id.NeedsRehash] tells the
// caller when to transparently upgrade on the next successful login.
//
// # What this package must NOT do
//
//   - Enforce password policy — length, reuse and age rules live in
//     package policy.
//   - Log plaintext passwords or store anything.
//   - Import any other credo package.
package password
