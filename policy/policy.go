package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrTooWeak reports a candidate that fails the strength rules. The
	// message names every violated rule; it only describes the caller's
	// own input, so it is safe to surface verbatim.
	ErrTooWeak = errors.New("password too weak")
	// ErrReused reports a candidate matching one of the account's recent
	// password hashes.
	ErrReused = errors.New("password was recently used")
	// ErrChangedTooRecently reports a change attempted before the minimum
	// password age has elapsed.
	ErrChangedTooRecently = errors.New("password was changed too recently")
)

// Defaults mirror the rules the rest of the system is tested against.
const (
	DefaultHistory   = 5
	DefaultMinLength = 8
	DefaultMinAge    = 24 * time.Hour
	DefaultMaxAge    = 90 * 24 * time.Hour
)

// CompareFunc reports whether plain matches an encoded hash. It is the
// hash primitive's Verify, injected so this package stays pure.
type CompareFunc func(plain, encoded string) (bool, error)

// Engine evaluates password policy. It holds no state and every check is
// deterministic in its inputs.
type Engine struct {
	History   int
	MinLength int
	MinAge    time.Duration
	MaxAge    time.Duration
}

// NewEngine returns an Engine with zero fields replaced by the defaults.
func NewEngine(history, minLength int, minAge, maxAge time.Duration) *Engine {
	e := &Engine{History: history, MinLength: minLength, MinAge: minAge, MaxAge: maxAge}
	if e.History <= 0 {
		e.History = DefaultHistory
	}
	if e.MinLength <= 0 {
		e.MinLength = DefaultMinLength
	}
	if e.MinAge <= 0 {
		e.MinAge = DefaultMinAge
	}
	if e.MaxAge <= 0 {
		e.MaxAge = DefaultMaxAge
	}
	return e
}

// Validate runs strength, reuse, and minimum-age checks in that order and
// returns the first violation. history is ordered newest first; only the
// first Engine.History entries are consulted.
func (e *Engine) Validate(ctx context.Context, plain string, history []string, lastChange *time.Time, now time.Time, compare CompareFunc) error {
	if err := e.CheckStrength(plain); err != nil {
		return err
	}
	if err := e.CheckReuse(ctx, plain, history, compare); err != nil {
		return err
	}
	return e.CheckAge(lastChange, now)
}

// CheckStrength enforces minimum length and the four character classes.
func (e *Engine) CheckStrength(plain string) error {
	var violations []string
	if len(plain) < e.MinLength {
		violations = append(violations, fmt.Sprintf("at least %d characters", e.MinLength))
	}

	var upper, lower, digit, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !upper {
		violations = append(violations, "an uppercase letter")
	}
	if !lower {
		violations = append(violations, "a lowercase letter")
	}
	if !digit {
		violations = append(violations, "a digit")
	}
	if !symbol {
		violations = append(violations, "a symbol")
	}

	if len(violations) > 0 {
		return fmt.Errorf("%w: needs %s", ErrTooWeak, strings.Join(violations, ", "))
	}
	return nil
}

// CheckReuse hash-compares the candidate against up to the last
// Engine.History stored hashes. Any match fails with ErrReused.
func (e *Engine) CheckReuse(ctx context.Context, plain string, history []string, compare CompareFunc) error {
	if compare == nil {
		return errors.New("policy: compare function required")
	}
	limit := len(history)
	if limit > e.History {
		limit = e.History
	}
	for _, encoded := range history[:limit] {
		if err := ctx.Err(); err != nil {
			return err
		}
		match, err := compare(plain, encoded)
		if err != nil {
			// A hash that no longer parses cannot block the change.
			continue
		}
		if match {
			return ErrReused
		}
	}
	return nil
}

// CheckAge fails with ErrChangedTooRecently when the last change is under
// the minimum age ago. A nil lastChange (first password) always passes.
// Rapid cycling would otherwise flush the reuse history.
func (e *Engine) CheckAge(lastChange *time.Time, now time.Time) error {
	if lastChange == nil {
		return nil
	}
	if now.Sub(*lastChange) < e.MinAge {
		return ErrChangedTooRecently
	}
	return nil
}

// Expired reports whether the password is past the maximum age. This is a
// separate advisory read path, never a Validate failure: an expired
// password is exactly the one the caller is trying to change.
func (e *Engine) Expired(lastChange *time.Time, now time.Time) bool {
	if lastChange == nil {
		return false
	}
	return now.Sub(*lastChange) > e.MaxAge
}
