package credo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/credo-auth/credo/token"
)

// VerifyEmail consumes an email-verification token and marks the account
// verified.
//
// Verifying an already-verified account is a no-op success, so a user who
// clicks the mail link twice sees the same page both times. The welcome
// email is best effort.
func (e *Engine) VerifyEmail(ctx context.Context, verifyToken string) error {
	if err := e.ready(); err != nil {
		return err
	}

	claims, err := e.codec.Verify(token.PurposeEmailVerify, verifyToken)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	a, err := e.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return e.infra(ctx, "verify_email", err)
	}

	if err := a.MarkVerified(e.now()); err != nil {
		// Already verified: idempotent success.
		return nil
	}
	if err := e.repo.Save(ctx, a); err != nil {
		return e.infra(ctx, "verify_email", err, "account_id", a.ID)
	}
	if err := e.sender.SendWelcomeEmail(ctx, a.Email); err != nil {
		e.logger.WarnContext(ctx, "welcome email failed", "account_id", a.ID, "error", err)
	}

	e.logger.InfoContext(ctx, "email verified", "account_id", a.ID)
	return nil
}

// ResendVerification issues a fresh verification token for the
// authenticated caller. Unlike the registration mail, the send is the
// whole point here, so a mail failure is reported as retryable rather
// than swallowed. A verified caller gets [ErrAlreadyVerified].
func (e *Engine) ResendVerification(ctx context.Context, accessToken string) error {
	if err := e.ready(); err != nil {
		return err
	}

	ident, err := e.Authenticate(ctx, accessToken)
	if err != nil {
		return err
	}
	a, err := e.repo.FindByID(ctx, ident.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return e.infra(ctx, "resend_verification", err)
	}
	if a.Verified {
		return ErrAlreadyVerified
	}

	verify, err := e.codec.Issue(token.PurposeEmailVerify, a.ID.String(), a.Email)
	if err != nil {
		return e.infra(ctx, "resend_verification", err, "account_id", a.ID)
	}
	if err := e.sender.SendVerificationEmail(ctx, a.Email, verify); err != nil {
		return e.infra(ctx, "resend_verification", err, "account_id", a.ID)
	}

	e.logger.InfoContext(ctx, "verification resent", "account_id", a.ID)
	return nil
}
