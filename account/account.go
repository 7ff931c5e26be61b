package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistorySize bounds the password history kept on an account. Entries
// beyond the bound are dropped oldest-first.
const HistorySize = 5

var (
	// ErrAlreadyVerified reports MarkVerified on a verified account.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrInvalidEmail reports an email that fails syntactic validation.
	ErrInvalidEmail = errors.New("invalid email address")
)

// Account is the user record plus its behaviorally significant state. All
// mutations happen in memory; persisting the result is the caller's job
// through the repository collaborator.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Verified     bool

	// RefreshTokenHash holds the hash of the single live refresh token,
	// or "" when no session is live. At most one refresh token is valid
	// per account at any time.
	RefreshTokenHash string

	// PasswordHistory holds prior hashes newest first, at most HistorySize.
	PasswordHistory []string

	LastPasswordChange *time.Time
	LastLogin          *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an unverified account with a fresh id. The email is
// normalized; the caller supplies an already-hashed password.
func New(email, passwordHash string, now time.Time) (*Account, error) {
	normalized, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	return &Account{
		ID:           uuid.New(),
		Email:        normalized,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// MarkVerified flips the verified flag. Calling it on an already verified
// account returns ErrAlreadyVerified; whether that is an error or a no-op
// is the orchestrator's policy, not the aggregate's.
func (a *Account) MarkVerified(now time.Time) error {
	if a.Verified {
		return ErrAlreadyVerified
	}
	a.Verified = true
	a.UpdatedAt = now
	return nil
}

// UpdatePassword swaps in newHash, pushes the old hash onto the bounded
// history, stamps the change time, and clears the live refresh token: a
// password change invalidates every existing session.
func (a *Account) UpdatePassword(newHash string, now time.Time) {
	a.PasswordHistory = append([]string{a.PasswordHash}, a.PasswordHistory...)
	if len(a.PasswordHistory) > HistorySize {
		a.PasswordHistory = a.PasswordHistory[:HistorySize]
	}
	a.PasswordHash = newHash
	changed := now
	a.LastPasswordChange = &changed
	a.RefreshTokenHash = ""
	a.UpdatedAt = now
}

// SetRefreshToken records the hash of the newly issued refresh token,
// displacing any previous one.
func (a *Account) SetRefreshToken(hash string, now time.Time) {
	a.RefreshTokenHash = hash
	a.UpdatedAt = now
}

// ClearRefreshToken drops the live refresh token, terminating the session
// family. Safe to call when none is set.
func (a *Account) ClearRefreshToken(now time.Time) {
	a.RefreshTokenHash = ""
	a.UpdatedAt = now
}

// TouchLogin stamps a successful login.
func (a *Account) TouchLogin(now time.Time) {
	login := now
	a.LastLogin = &login
	a.UpdatedAt = now
}

// Clone returns a deep copy, so stores can hand out accounts without
// sharing history slices with callers.
func (a *Account) Clone() *Account {
	clone := *a
	clone.PasswordHistory = append([]string(nil), a.PasswordHistory...)
	if a.LastPasswordChange != nil {
		t := *a.LastPasswordChange
		clone.LastPasswordChange = &t
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		clone.LastLogin = &t
	}
	return &clone
}

// View is the safe projection handed to transports: no hash, no history.
type View struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// View projects the account for external callers.
func (a *Account) View() View {
	return View{
		ID:        a.ID.String(),
		Email:     a.Email,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an address. Uniqueness is enforced
// case-insensitively everywhere by normalizing before compare or store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail normalizes and applies minimal syntactic validation.
// Deliverability is the mail collaborator's problem.
func ValidateEmail(email string) (string, error) {
	normalized := NormalizeEmail(email)
	at := strings.IndexByte(normalized, '@')
	if at <= 0 || at == len(normalized)-1 {
		return "", ErrInvalidEmail
	}
	domain := normalized[at+1:]
	if !strings.Contains(domain, ".") || strings.ContainsAny(normalized, " \t\n") {
		return "", ErrInvalidEmail
	}
	if len(normalized) > 254 {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
