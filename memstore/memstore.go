// Package memstore is the reference in-memory Repository. It backs the
// test suites and the examples, and documents the contract persistent
// adapters must honor — most importantly the compare-and-swap semantics
// of RotateRefreshHash.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	credo "github.com/credo-auth/credo"
	"github.com/credo-auth/credo/account"
)

// Store implements credo.Repository over two mutex-guarded maps. Accounts
// are deep-copied on the way in and out, so callers can never mutate
// stored state except through the Repository methods.
type Store struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*account.Account
	byEmail map[string]uuid.UUID
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:    make(map[uuid.UUID]*account.Account),
		byEmail: make(map[string]uuid.UUID),
	}
}

// FindByID returns a copy of the account or credo.ErrAccountNotFound.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, credo.ErrAccountNotFound
	}
	return a.Clone(), nil
}

// FindByEmail resolves a normalized email to a copy of the account.
func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[account.NormalizeEmail(email)]
	if !ok {
		return nil, credo.ErrAccountNotFound
	}
	return s.byID[id].Clone(), nil
}

// Create persists a new account, failing with credo.ErrEmailExists when
// the email is already claimed. The check and the insert happen under one
// lock, so concurrent registrations of the same address serialize here.
func (s *Store) Create(ctx context.Context, a *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[a.Email]; taken {
		return credo.ErrEmailExists
	}
	s.byID[a.ID] = a.Clone()
	s.byEmail[a.Email] = a.ID
	return nil
}

// Save persists the full mutated state of an existing account.
func (s *Store) Save(ctx context.Context, a *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prior, ok := s.byID[a.ID]
	if !ok {
		return credo.ErrAccountNotFound
	}
	if prior.Email != a.Email {
		delete(s.byEmail, prior.Email)
		s.byEmail[a.Email] = a.ID
	}
	s.byID[a.ID] = a.Clone()
	return nil
}

// RotateRefreshHash performs the conditional swap under the write lock:
// the stored hash must still equal expected, otherwise the call fails
// with credo.ErrRefreshHashMismatch and changes nothing. Two concurrent
// rotations on the same stale token therefore produce exactly one winner.
func (s *Store) RotateRefreshHash(ctx context.Context, id uuid.UUID, expected, next string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return credo.ErrAccountNotFound
	}
	if a.RefreshTokenHash != expected {
		return credo.ErrRefreshHashMismatch
	}
	a.RefreshTokenHash = next
	return nil
}

// Len reports the number of stored accounts. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
