package credo

import (
	"context"
	"errors"

	"github.com/credo-auth/credo/account"
	"github.com/credo-auth/credo/token"
)

// Register creates an unverified account and signs the caller in.
//
// The new password only has to clear the strength gate; history and age
// checks do not apply to a first password. The verification email is
// best effort: a mail failure is logged and the registration still
// succeeds, because the token is already issued and the account already
// exists. [ErrEmailExists] is the one place the engine confirms that an
// email is taken.
func (e *Engine) Register(ctx context.Context, email, plain string) (RegisterResult, error) {
	if err := e.ready(); err != nil {
		return RegisterResult{}, err
	}

	email, err := account.ValidateEmail(email)
	if err != nil {
		return RegisterResult{}, err
	}
	if err := e.policy.CheckStrength(plain); err != nil {
		return RegisterResult{}, err
	}

	hash, err := e.hasher.Hash(plain)
	if err != nil {
		return RegisterResult{}, e.infra(ctx, "register", err)
	}
	a, err := account.New(email, hash, e.now())
	if err != nil {
		return RegisterResult{}, err
	}
	if err := e.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return RegisterResult{}, ErrEmailExists
		}
		return RegisterResult{}, e.infra(ctx, "register", err)
	}

	verify, err := e.codec.Issue(token.PurposeEmailVerify, a.ID.String(), a.Email)
	if err != nil {
		return RegisterResult{}, e.infra(ctx, "register", err, "account_id", a.ID)
	}
	if err := e.sender.SendVerificationEmail(ctx, a.Email, verify); err != nil {
		e.logger.WarnContext(ctx, "verification email failed",
			"flow", "register", "account_id", a.ID, "error", err)
	}

	pair, err := e.issuePair(a)
	if err != nil {
		return RegisterResult{}, e.infra(ctx, "register", err, "account_id", a.ID)
	}
	if err := e.repo.Save(ctx, a); err != nil {
		return RegisterResult{}, e.infra(ctx, "register", err, "account_id", a.ID)
	}

	e.logger.InfoContext(ctx, "account registered", "account_id", a.ID)
	return RegisterResult{Tokens: pair, Account: a.View()}, nil
}
