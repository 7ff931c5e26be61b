package credo

import (
	"errors"
	"net/http"

	"github.com/credo-auth/credo/account"
	"github.com/credo-auth/credo/policy"
)

var (
	// ErrInvalidCredentials is returned for a missing account or a wrong
	// password alike, so responses never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified rejects login before the address is confirmed.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrEmailExists rejects registration for a taken address. This is the
	// one deliberate place existence is revealed: the caller is trying to
	// claim the address.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidRefreshToken covers every refresh failure: bad signature,
	// expiry, revocation, and rotation mismatch (token-family reuse).
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidOrExpiredToken rejects a bad email-verify or reset token.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrTokenRevoked rejects a cryptographically valid token found on the
	// denylist.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrAlreadyVerified rejects resend-verification for a verified caller.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrAccountNotFound is an internal lookup miss; flows translate it
	// before it reaches a response.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUnavailable wraps persistence, store, and mail infrastructure
	// failures. Retryable; details live in the wrapped error and the logs.
	ErrUnavailable = errors.New("service temporarily unavailable")
	// ErrEngineNotReady reports use of an Engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrRefreshHashMismatch is the sentinel repositories return from
	// RotateRefreshHash when the stored hash is not the expected one.
	// Flows surface it as ErrInvalidRefreshToken.
	ErrRefreshHashMismatch = errors.New("refresh token hash mismatch")
)

// Kind classifies a flow error for transports and logging.
type Kind int

const (
	// KindUnknown is the zero classification.
	KindUnknown Kind = iota
	// KindAuthentication covers bad credentials and bad/revoked tokens.
	KindAuthentication
	// KindConflict covers duplicate email on registration.
	KindConflict
	// KindPolicy covers password rule violations. Safe to expose verbatim.
	KindPolicy
	// KindForbidden covers a valid caller lacking a precondition
	// (unverified email).
	KindForbidden
	// KindValidation covers malformed input such as a bad email address.
	KindValidation
	// KindInfrastructure covers retryable collaborator failures.
	KindInfrastructure
)

// Classify maps any error returned by an Engine flow to its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrInvalidOrExpiredToken),
		errors.Is(err, ErrTokenRevoked),
		errors.Is(err, ErrAccountNotFound):
		return KindAuthentication
	case errors.Is(err, ErrEmailExists):
		return KindConflict
	case errors.Is(err, policy.ErrTooWeak),
		errors.Is(err, policy.ErrReused),
		errors.Is(err, policy.ErrChangedTooRecently):
		return KindPolicy
	case errors.Is(err, ErrEmailNotVerified):
		return KindForbidden
	case errors.Is(err, ErrAlreadyVerified),
		errors.Is(err, account.ErrInvalidEmail):
		return KindValidation
	case errors.Is(err, ErrUnavailable):
		return KindInfrastructure
	default:
		return KindUnknown
	}
}

// HTTPStatus maps a flow error to the conventional status code. Unknown
// errors map to 500 rather than leaking as 2xx.
func HTTPStatus(err error) int {
	switch Classify(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindPolicy, KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
