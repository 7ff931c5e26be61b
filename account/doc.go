// Package account holds the user aggregate: the record every
// authentication flow mutates, plus the invariants it must keep.
//
// The aggregate is plain data with behavior — it never performs I/O.
// Flows mutate an in-memory Account and hand it back to the repository
// collaborator to persist. Invariants owned here:
//
//   - email is stored normalized (lowercase, trimmed)
//   - password history is bounded at [HistorySize], newest first
//   - changing the password clears the live refresh token
package account
