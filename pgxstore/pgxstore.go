// Package pgxstore is the PostgreSQL Repository adapter, built on the
// pgx connection pool. One row per account; the password history rides
// along as a text array, so no join or secondary table is needed.
//
// Refresh rotation maps to a conditional UPDATE: the row-level atomicity
// of a single statement gives the compare-and-swap the flows rely on
// without explicit locking.
package pgxstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	credo "github.com/credo-auth/credo"
	"github.com/credo-auth/credo/account"
)

// Schema is the DDL this adapter expects. Apply it through your
// migration tooling or with Migrate for tests and prototypes.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id                   uuid PRIMARY KEY,
    email                text NOT NULL UNIQUE,
    password_hash        text NOT NULL,
    verified             boolean NOT NULL DEFAULT false,
    refresh_token_hash   text NOT NULL DEFAULT '',
    password_history     text[] NOT NULL DEFAULT '{}',
    last_password_change timestamptz,
    last_login           timestamptz,
    created_at           timestamptz NOT NULL,
    updated_at           timestamptz NOT NULL
);
`

const uniqueViolation = "23505"

const accountColumns = `id::text, email, password_hash, verified, refresh_token_hash,
       password_history, last_password_change, last_login, created_at, updated_at`

// Store implements credo.Repository over a pgx pool. The pool is owned by
// the caller; Store never closes it.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies Schema. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("pgxstore: migrate: %w", err)
	}
	return nil
}

// FindByID loads one account by primary key.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1::uuid`, id.String())
	return scanAccount(row)
}

// FindByEmail loads one account by its unique email. Callers pass the
// address already normalized; the column stores normalized values only.
func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`,
		account.NormalizeEmail(email))
	return scanAccount(row)
}

// Create inserts a new account. The unique index on email turns a
// concurrent claim of the same address into credo.ErrEmailExists.
func (s *Store) Create(ctx context.Context, a *account.Account) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO accounts (
    id, email, password_hash, verified, refresh_token_hash,
    password_history, last_password_change, last_login, created_at, updated_at
) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID.String(), a.Email, a.PasswordHash, a.Verified, a.RefreshTokenHash,
		historyOrEmpty(a.PasswordHistory), a.LastPasswordChange, a.LastLogin,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return credo.ErrEmailExists
		}
		return fmt.Errorf("pgxstore: create: %w", err)
	}
	return nil
}

// Save writes back the full mutated state of an existing account.
func (s *Store) Save(ctx context.Context, a *account.Account) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE accounts SET
    email = $2,
    password_hash = $3,
    verified = $4,
    refresh_token_hash = $5,
    password_history = $6,
    last_password_change = $7,
    last_login = $8,
    updated_at = $9
WHERE id = $1::uuid`,
		a.ID.String(), a.Email, a.PasswordHash, a.Verified, a.RefreshTokenHash,
		historyOrEmpty(a.PasswordHistory), a.LastPasswordChange, a.LastLogin,
		a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgxstore: save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return credo.ErrAccountNotFound
	}
	return nil
}

// RotateRefreshHash swaps the stored refresh hash only if it still equals
// expected. The single conditional UPDATE is the compare-and-swap: of two
// concurrent rotations on the same stale hash, exactly one matches the
// WHERE clause.
func (s *Store) RotateRefreshHash(ctx context.Context, id uuid.UUID, expected, next string) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE accounts SET refresh_token_hash = $3, updated_at = now()
WHERE id = $1::uuid AND refresh_token_hash = $2`,
		id.String(), expected, next)
	if err != nil {
		return fmt.Errorf("pgxstore: rotate refresh hash: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1::uuid)`, id.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("pgxstore: rotate refresh hash: %w", err)
	}
	if !exists {
		return credo.ErrAccountNotFound
	}
	return credo.ErrRefreshHashMismatch
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		a                  account.Account
		id                 string
		lastPasswordChange *time.Time
		lastLogin          *time.Time
	)
	err := row.Scan(&id, &a.Email, &a.PasswordHash, &a.Verified, &a.RefreshTokenHash,
		&a.PasswordHistory, &lastPasswordChange, &lastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credo.ErrAccountNotFound
		}
		return nil, fmt.Errorf("pgxstore: scan: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("pgxstore: scan id: %w", err)
	}
	a.ID = parsed
	a.LastPasswordChange = lastPasswordChange
	a.LastLogin = lastLogin
	return &a, nil
}

// historyOrEmpty keeps a nil slice from round-tripping through NULL; the
// column is declared NOT NULL.
func historyOrEmpty(history []string) []string {
	if history == nil {
		return []string{}
	}
	return history
}
