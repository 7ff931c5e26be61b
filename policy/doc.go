// Package policy enforces password rules: minimum strength, reuse against
// a bounded history, and minimum/maximum age.
//
// The engine is pure. Given the same inputs it always returns the same
// verdict; hashing is injected as a [CompareFunc] so the package never
// touches the hash primitive, the clock, or storage directly.
//
// Maximum age is deliberately not a [Engine.Validate] failure.
// [Engine.Expired] is a separate advisory read path: flagging an account
// as password-expired must not block the change that fixes it.
package policy
