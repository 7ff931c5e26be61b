package credo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/credo-auth/credo/account"
	"github.com/credo-auth/credo/mail"
	"github.com/credo-auth/credo/policy"
	"github.com/credo-auth/credo/token"
)

// Engine is the authentication orchestrator: it composes the token
// codec, the password policy, the revocation store, and the injected
// collaborators into the register/login/refresh/logout/reset/verify
// flows.
//
// Engine instances are built once through [Builder.Build] and are safe
// for concurrent use afterwards.
type Engine struct {
	config      Config
	codec       *token.Codec
	policy      *policy.Engine
	repo        Repository
	hasher      Hasher
	sender      mail.Sender
	revocations RevocationStore
	clock       Clock
	logger      *slog.Logger

	// ownedStore is set only when Build created the revocation store
	// itself and is therefore responsible for stopping its sweeper.
	ownedStore *MemoryRevocationStore
}

func (e *Engine) ready() error {
	if e == nil || e.codec == nil || e.repo == nil || e.revocations == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) now() time.Time {
	return e.clock.Now()
}

// hashToken derives the storable fingerprint of a refresh token. Only the
// hash is ever persisted; the raw token stays a bearer credential.
func hashToken(tokenStr string) string {
	sum := sha256.Sum256([]byte(tokenStr))
	return hex.EncodeToString(sum[:])
}

// issuePair signs a fresh access+refresh pair for the account and records
// the refresh hash on the in-memory aggregate. Persisting is the caller's
// next step.
func (e *Engine) issuePair(a *account.Account) (TokenPair, error) {
	access, err := e.codec.Issue(token.PurposeAccess, a.ID.String(), a.Email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := e.codec.Issue(token.PurposeRefresh, a.ID.String(), a.Email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	a.SetRefreshToken(hashToken(refresh), e.now())
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// infra wraps a collaborator failure as the retryable kind and logs it
// with enough context to correlate. The wrapped detail stays out of user
// responses.
func (e *Engine) infra(ctx context.Context, flow string, err error, attrs ...any) error {
	attrs = append(attrs, "flow", flow, "error", err)
	e.logger.ErrorContext(ctx, "infrastructure failure", attrs...)
	return fmt.Errorf("%w: %s", ErrUnavailable, flow)
}
