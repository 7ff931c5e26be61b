package credo_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	credo "github.com/credo-auth/credo"
	"github.com/credo-auth/credo/account"
	"github.com/credo-auth/credo/memstore"
	"github.com/credo-auth/credo/policy"
	"github.com/credo-auth/credo/token"
)

const goodPassword = "Pa$$w0rd!"

func testConfig() credo.Config {
	cfg := credo.DefaultConfig()
	cfg.AccessSecret = "access-secret-0123456789abcdef"
	cfg.RefreshSecret = "refresh-secret-0123456789abcdef"
	cfg.VerifySecret = "verify-secret-0123456789abcdef"
	cfg.ResetSecret = "reset-secret-0123456789abcdef"
	return cfg
}

// fakeClock is a settable time source shared by the engine and the test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// plainHasher keeps flow tests fast; argon2 itself is covered in the
// password package.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h$" + plain, nil }

func (plainHasher) Verify(plain, encoded string) (bool, error) {
	return encoded == "h$"+plain, nil
}

type sentMail struct {
	To    string
	Token string
}

// captureSender records outbound mail and can be told to fail.
type captureSender struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
	welcomes      []string
	fail          bool
}

func (s *captureSender) SendVerificationEmail(_ context.Context, email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp down")
	}
	s.verifications = append(s.verifications, sentMail{To: email, Token: token})
	return nil
}

func (s *captureSender) SendPasswordResetEmail(_ context.Context, email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp down")
	}
	s.resets = append(s.resets, sentMail{To: email, Token: token})
	return nil
}

func (s *captureSender) SendWelcomeEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp down")
	}
	s.welcomes = append(s.welcomes, email)
	return nil
}

func (s *captureSender) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *captureSender) lastVerification(t *testing.T) sentMail {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.verifications) == 0 {
		t.Fatal("no verification email sent")
	}
	return s.verifications[len(s.verifications)-1]
}

func (s *captureSender) lastReset(t *testing.T) sentMail {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.resets) == 0 {
		t.Fatal("no reset email sent")
	}
	return s.resets[len(s.resets)-1]
}

func (s *captureSender) resetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resets)
}

type testEnv struct {
	engine *credo.Engine
	store  *memstore.Store
	sender *captureSender
	clock  *fakeClock
	codec  *token.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	store := memstore.New()
	sender := &captureSender{}
	clock := newFakeClock()

	engine, err := credo.New().
		WithConfig(cfg).
		WithRepository(store).
		WithEmailSender(sender).
		WithHasher(plainHasher{}).
		WithRedis(client).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		VerifySecret:  []byte(cfg.VerifySecret),
		ResetSecret:   []byte(cfg.ResetSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		VerifyTTL:     cfg.VerifyTTL,
		ResetTTL:      cfg.ResetTTL,
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		t.Fatalf("build codec: %v", err)
	}

	return &testEnv{
		engine: engine,
		store:  store,
		sender: sender,
		clock:  clock,
		codec:  codec.WithNow(clock.Now),
	}
}

// register creates and returns a fresh account for the email.
func (te *testEnv) register(t *testing.T, email string) credo.RegisterResult {
	t.Helper()
	res, err := te.engine.Register(context.Background(), email, goodPassword)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res
}

// registerVerified runs register plus the emailed verification link.
func (te *testEnv) registerVerified(t *testing.T, email string) credo.RegisterResult {
	t.Helper()
	res := te.register(t, email)
	if err := te.engine.VerifyEmail(context.Background(), te.sender.lastVerification(t).Token); err != nil {
		t.Fatalf("verify email: %v", err)
	}
	return res
}

func TestRegister(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	res := te.register(t, "a@x.com")
	if res.Account.Email != "a@x.com" {
		t.Errorf("account email = %q, want a@x.com", res.Account.Email)
	}
	if res.Account.Verified {
		t.Error("new account must start unverified")
	}

	access, err := te.codec.Verify(token.PurposeAccess, res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	refresh, err := te.codec.Verify(token.PurposeRefresh, res.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh token does not verify: %v", err)
	}
	if access.Subject != res.Account.ID || refresh.Subject != res.Account.ID {
		t.Errorf("token subjects %q/%q, want %q", access.Subject, refresh.Subject, res.Account.ID)
	}

	if got := te.sender.lastVerification(t); got.To != "a@x.com" {
		t.Errorf("verification sent to %q", got.To)
	}
	if _, err := te.engine.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
		t.Errorf("fresh refresh token rejected: %v", err)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	te := newTestEnv(t)

	res := te.register(t, "  MiXeD@X.CoM ")
	if res.Account.Email != "mixed@x.com" {
		t.Errorf("email = %q, want mixed@x.com", res.Account.Email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	te := newTestEnv(t)

	te.register(t, "a@x.com")
	_, err := te.engine.Register(context.Background(), "A@x.com", goodPassword)
	if !errors.Is(err, credo.ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	if _, err := te.engine.Register(ctx, "not-an-email", goodPassword); !errors.Is(err, account.ErrInvalidEmail) {
		t.Errorf("invalid email: err = %v, want ErrInvalidEmail", err)
	}
	if _, err := te.engine.Register(ctx, "b@x.com", "alllowercase"); !errors.Is(err, policy.ErrTooWeak) {
		t.Errorf("weak password: err = %v, want ErrTooWeak", err)
	}
	if te.store.Len() != 0 {
		t.Errorf("rejected registrations persisted %d accounts", te.store.Len())
	}
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	te := newTestEnv(t)
	te.sender.setFail(true)

	res, err := te.engine.Register(context.Background(), "a@x.com", goodPassword)
	if err != nil {
		t.Fatalf("register with broken mail: %v", err)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Error("tokens missing despite successful registration")
	}
}

func TestLoginBeforeVerification(t *testing.T) {
	te := newTestEnv(t)
	te.register(t, "a@x.com")

	_, err := te.engine.Login(context.Background(), "a@x.com", goodPassword)
	if !errors.Is(err, credo.ErrEmailNotVerified) {
		t.Fatalf("err = %v, want ErrEmailNotVerified", err)
	}
}

func TestLoginAfterVerification(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	pair, err := te.engine.Login(ctx, "A@X.com", goodPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	ident, err := te.engine.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if ident.Email != "a@x.com" {
		t.Errorf("identity email = %q", ident.Email)
	}

	a, err := te.store.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	if a.LastLogin == nil || !a.LastLogin.Equal(te.clock.Now()) {
		t.Errorf("last login = %v, want %v", a.LastLogin, te.clock.Now())
	}
}

func TestLoginDoesNotDistinguishUnknownEmailFromWrongPassword(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	_, unknownErr := te.engine.Login(ctx, "nobody@x.com", goodPassword)
	_, wrongErr := te.engine.Login(ctx, "a@x.com", "Wr0ng-Pass!")
	if !errors.Is(unknownErr, credo.ErrInvalidCredentials) || !errors.Is(wrongErr, credo.ErrInvalidCredentials) {
		t.Fatalf("errs = %v / %v, both must be ErrInvalidCredentials", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("error messages differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestLoginDisplacesPreviousSession(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	first, err := te.engine.Login(ctx, "a@x.com", goodPassword)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := te.engine.Login(ctx, "a@x.com", goodPassword); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := te.engine.Refresh(ctx, first.RefreshToken); !errors.Is(err, credo.ErrInvalidRefreshToken) {
		t.Fatalf("displaced refresh token: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	pair, err := te.engine.Login(ctx, "a@x.com", goodPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := te.engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation returned the same refresh token")
	}

	if _, err := te.engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, credo.ErrInvalidRefreshToken) {
		t.Fatalf("replayed refresh token: err = %v, want ErrInvalidRefreshToken", err)
	}
	if _, err := te.engine.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("current refresh token rejected: %v", err)
	}
}

func TestRefreshRejectsWrongPurpose(t *testing.T) {
	te := newTestEnv(t)
	res := te.register(t, "a@x.com")

	_, err := te.engine.Refresh(context.Background(), res.Tokens.AccessToken)
	if !errors.Is(err, credo.ErrInvalidRefreshToken) {
		t.Fatalf("access token as refresh: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshExpired(t *testing.T) {
	te := newTestEnv(t)
	res := te.register(t, "a@x.com")

	te.clock.Advance(testConfig().RefreshTTL + time.Minute)
	_, err := te.engine.Refresh(context.Background(), res.Tokens.RefreshToken)
	if !errors.Is(err, credo.ErrInvalidRefreshToken) {
		t.Fatalf("expired refresh token: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	pair, err := te.engine.Login(ctx, "a@x.com", goodPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := te.engine.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// The token still verifies cryptographically; the denylist is what
	// rejects it.
	if _, err := te.codec.Verify(token.PurposeAccess, pair.AccessToken); err != nil {
		t.Fatalf("token should still verify after logout: %v", err)
	}
	if _, err := te.engine.Authenticate(ctx, pair.AccessToken); !errors.Is(err, credo.ErrTokenRevoked) {
		t.Fatalf("authenticate after logout: err = %v, want ErrTokenRevoked", err)
	}
	if _, err := te.engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, credo.ErrInvalidRefreshToken) {
		t.Fatalf("refresh after logout: err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestLogoutWithoutRefreshToken(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	pair, err := te.engine.Login(ctx, "a@x.com", goodPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := te.engine.Logout(ctx, pair.AccessToken, ""); err != nil {
		t.Fatalf("logout without refresh token: %v", err)
	}

	a, err := te.store.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	if a.RefreshTokenHash != "" {
		t.Error("stored refresh hash not cleared")
	}
}

func TestLogoutTwice(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	pair, err := te.engine.Login(ctx, "a@x.com", goodPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := te.engine.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := te.engine.Logout(ctx, pair.AccessToken, pair.RefreshToken); !errors.Is(err, credo.ErrTokenRevoked) {
		t.Fatalf("second logout: err = %v, want ErrTokenRevoked", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.register(t, "a@x.com")
	verify := te.sender.lastVerification(t).Token

	if err := te.engine.VerifyEmail(ctx, verify); err != nil {
		t.Fatalf("verify: %v", err)
	}
	a, err := te.store.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	if !a.Verified {
		t.Fatal("account not marked verified")
	}
	te.sender.mu.Lock()
	welcomes := len(te.sender.welcomes)
	te.sender.mu.Unlock()
	if welcomes != 1 {
		t.Errorf("welcome emails = %d, want 1", welcomes)
	}

	// Clicking the link again is fine.
	if err := te.engine.VerifyEmail(ctx, verify); err != nil {
		t.Fatalf("second verify: %v", err)
	}
}

func TestVerifyEmailRejectsBadTokens(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	res := te.register(t, "a@x.com")

	if err := te.engine.VerifyEmail(ctx, "garbage"); !errors.Is(err, credo.ErrInvalidOrExpiredToken) {
		t.Errorf("garbage token: err = %v, want ErrInvalidOrExpiredToken", err)
	}
	if err := te.engine.VerifyEmail(ctx, res.Tokens.AccessToken); !errors.Is(err, credo.ErrInvalidOrExpiredToken) {
		t.Errorf("access token: err = %v, want ErrInvalidOrExpiredToken", err)
	}

	te.clock.Advance(testConfig().VerifyTTL + time.Minute)
	verify := te.sender.lastVerification(t).Token
	if err := te.engine.VerifyEmail(ctx, verify); !errors.Is(err, credo.ErrInvalidOrExpiredToken) {
		t.Errorf("expired token: err = %v, want ErrInvalidOrExpiredToken", err)
	}
}

func TestResendVerification(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	res := te.register(t, "a@x.com")

	if err := te.engine.ResendVerification(ctx, res.Tokens.AccessToken); err != nil {
		t.Fatalf("resend: %v", err)
	}
	fresh := te.sender.lastVerification(t).Token
	if err := te.engine.VerifyEmail(ctx, fresh); err != nil {
		t.Fatalf("verify with resent token: %v", err)
	}

	if err := te.engine.ResendVerification(ctx, res.Tokens.AccessToken); !errors.Is(err, credo.ErrAlreadyVerified) {
		t.Fatalf("resend when verified: err = %v, want ErrAlreadyVerified", err)
	}
	if err := te.engine.ResendVerification(ctx, "garbage"); !errors.Is(err, credo.ErrInvalidOrExpiredToken) {
		t.Fatalf("resend with garbage: err = %v, want ErrInvalidOrExpiredToken", err)
	}
}

func TestResendVerificationMailFailureIsRetryable(t *testing.T) {
	te := newTestEnv(t)
	res := te.register(t, "a@x.com")
	te.sender.setFail(true)

	err := te.engine.ResendVerification(context.Background(), res.Tokens.AccessToken)
	if !errors.Is(err, credo.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestForgotPasswordAntiEnumeration(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	existing := te.engine.ForgotPassword(ctx, "a@x.com")
	missing := te.engine.ForgotPassword(ctx, "nobody@x.com")
	if existing != nil || missing != nil {
		t.Fatalf("results differ from uniform success: %v / %v", existing, missing)
	}
	if te.sender.resetCount() != 1 {
		t.Errorf("reset emails = %d, want exactly 1 (existing account only)", te.sender.resetCount())
	}
}

func TestForgotPasswordSwallowsMailFailure(t *testing.T) {
	te := newTestEnv(t)
	te.registerVerified(t, "a@x.com")
	te.sender.setFail(true)

	if err := te.engine.ForgotPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("err = %v, want uniform success", err)
	}
}

func TestResetPassword(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	pair, err := te.engine.Login(ctx, "a@x.com", goodPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := te.engine.ForgotPassword(ctx, "a@x.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	reset := te.sender.lastReset(t).Token

	const newPassword = "N3w&Better!"
	if err := te.engine.ResetPassword(ctx, reset, newPassword); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, err := te.engine.Login(ctx, "a@x.com", goodPassword); !errors.Is(err, credo.ErrInvalidCredentials) {
		t.Errorf("old password still works: err = %v", err)
	}
	if _, err := te.engine.Login(ctx, "a@x.com", newPassword); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	// The password change ends the old session.
	if _, err := te.engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, credo.ErrInvalidRefreshToken) {
		t.Errorf("pre-reset refresh token: err = %v, want ErrInvalidRefreshToken", err)
	}

	a, err := te.store.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find account: %v", err)
	}
	if len(a.PasswordHistory) != 1 || a.PasswordHistory[0] != "h$"+goodPassword {
		t.Errorf("history = %v, want the previous hash", a.PasswordHistory)
	}
}

func TestResetPasswordTokenSingleUse(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	if err := te.engine.ForgotPassword(ctx, "a@x.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	reset := te.sender.lastReset(t).Token

	if err := te.engine.ResetPassword(ctx, reset, "N3w&Better!"); err != nil {
		t.Fatalf("first reset: %v", err)
	}
	err := te.engine.ResetPassword(ctx, reset, "An0ther&One!")
	if !errors.Is(err, credo.ErrInvalidOrExpiredToken) {
		t.Fatalf("replayed reset token: err = %v, want ErrInvalidOrExpiredToken", err)
	}
}

func TestResetPasswordPolicy(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	resetToken := func() string {
		if err := te.engine.ForgotPassword(ctx, "a@x.com"); err != nil {
			t.Fatalf("forgot: %v", err)
		}
		return te.sender.lastReset(t).Token
	}

	if err := te.engine.ResetPassword(ctx, resetToken(), "weak"); !errors.Is(err, policy.ErrTooWeak) {
		t.Errorf("weak candidate: err = %v, want ErrTooWeak", err)
	}
	if err := te.engine.ResetPassword(ctx, resetToken(), goodPassword); !errors.Is(err, policy.ErrReused) {
		t.Errorf("current password as candidate: err = %v, want ErrReused", err)
	}

	if err := te.engine.ResetPassword(ctx, resetToken(), "N3w&Better!"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	// Reusing the now-historical original fails, and so does changing
	// again inside the minimum age window.
	if err := te.engine.ResetPassword(ctx, resetToken(), goodPassword); !errors.Is(err, policy.ErrReused) {
		t.Errorf("historical password as candidate: err = %v, want ErrReused", err)
	}
	if err := te.engine.ResetPassword(ctx, resetToken(), "Yet&An0ther1!"); !errors.Is(err, policy.ErrChangedTooRecently) {
		t.Errorf("change inside min age: err = %v, want ErrChangedTooRecently", err)
	}

	te.clock.Advance(25 * time.Hour)
	if err := te.engine.ResetPassword(ctx, resetToken(), "Yet&An0ther1!"); err != nil {
		t.Errorf("change after min age: %v", err)
	}
}

func TestAuthenticateExpiry(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	res := te.register(t, "a@x.com")

	if _, err := te.engine.Authenticate(ctx, res.Tokens.AccessToken); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	te.clock.Advance(testConfig().AccessTTL + time.Minute)
	if _, err := te.engine.Authenticate(ctx, res.Tokens.AccessToken); !errors.Is(err, credo.ErrInvalidOrExpiredToken) {
		t.Fatalf("expired access token: err = %v, want ErrInvalidOrExpiredToken", err)
	}
}

func TestPasswordExpired(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	te.registerVerified(t, "a@x.com")

	if err := te.engine.ForgotPassword(ctx, "a@x.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if err := te.engine.ResetPassword(ctx, te.sender.lastReset(t).Token, "N3w&Better!"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	a, err := te.store.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find account: %v", err)
	}

	expired, err := te.engine.PasswordExpired(ctx, a.ID)
	if err != nil {
		t.Fatalf("password expired: %v", err)
	}
	if expired {
		t.Error("fresh password reported expired")
	}

	te.clock.Advance(testConfig().PasswordMaxAge + time.Hour)
	expired, err = te.engine.PasswordExpired(ctx, a.ID)
	if err != nil {
		t.Fatalf("password expired: %v", err)
	}
	if !expired {
		t.Error("stale password not reported expired")
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	te := newTestEnv(t)

	weak := te.engine.CheckPasswordStrength("password")
	strong := te.engine.CheckPasswordStrength("c0rrect&H0rse-Battery")
	if weak.Score >= strong.Score {
		t.Errorf("scores %d vs %d, weak must rank below strong", weak.Score, strong.Score)
	}
	if len(weak.Feedback) == 0 {
		t.Error("weak password produced no feedback")
	}
}

func TestBuilderValidation(t *testing.T) {
	if _, err := credo.New().WithConfig(testConfig()).Build(); err == nil {
		t.Error("build without repository must fail")
	}

	cfg := testConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	if _, err := credo.New().WithConfig(cfg).WithRepository(memstore.New()).Build(); err == nil {
		t.Error("build with shared secrets must fail")
	}

	cfg = testConfig()
	cfg.AccessSecret = ""
	_, err := credo.New().WithConfig(cfg).WithRepository(memstore.New()).Build()
	if err == nil || !strings.Contains(err.Error(), "secret") {
		t.Errorf("build with missing secret: err = %v", err)
	}
}
