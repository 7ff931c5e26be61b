package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	credo "github.com/credo-auth/credo"
	"github.com/credo-auth/credo/account"
)

func newAccount(t *testing.T, email string) *account.Account {
	t.Helper()
	a, err := account.New(email, "hash-1", time.Now())
	if err != nil {
		t.Fatalf("account.New: %v", err)
	}
	return a
}

func TestStoreCreateAndFind(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := newAccount(t, "a@x.com")

	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byID, err := s.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.Email != "a@x.com" {
		t.Errorf("email = %q", byID.Email)
	}

	byEmail, err := s.FindByEmail(ctx, "A@X.COM")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if byEmail.ID != a.ID {
		t.Errorf("id = %v, want %v", byEmail.ID, a.ID)
	}

	if _, err := s.FindByEmail(ctx, "nobody@x.com"); !errors.Is(err, credo.ErrAccountNotFound) {
		t.Errorf("missing email err = %v", err)
	}
}

func TestStoreCreateDuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Create(ctx, newAccount(t, "a@x.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Create(ctx, newAccount(t, "a@x.com"))
	if !errors.Is(err, credo.ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestStoreCopiesOnReadAndWrite(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := newAccount(t, "a@x.com")
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	a.Email = "tampered@x.com"
	got, err := s.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Errorf("stored email = %q, mutated through caller copy", got.Email)
	}

	got.PasswordHistory = append(got.PasswordHistory, "injected")
	again, err := s.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(again.PasswordHistory) != 0 {
		t.Errorf("history = %v, mutated through read copy", again.PasswordHistory)
	}
}

func TestStoreSaveReindexesEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := newAccount(t, "old@x.com")
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	a.Email = "new@x.com"
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := s.FindByEmail(ctx, "old@x.com"); !errors.Is(err, credo.ErrAccountNotFound) {
		t.Errorf("old email still resolves: err = %v", err)
	}
	if _, err := s.FindByEmail(ctx, "new@x.com"); err != nil {
		t.Errorf("new email does not resolve: %v", err)
	}
}

func TestRotateRefreshHash(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := newAccount(t, "a@x.com")
	a.RefreshTokenHash = "old"
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.RotateRefreshHash(ctx, a.ID, "old", "new"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	err := s.RotateRefreshHash(ctx, a.ID, "old", "newer")
	if !errors.Is(err, credo.ErrRefreshHashMismatch) {
		t.Fatalf("stale rotate err = %v, want ErrRefreshHashMismatch", err)
	}

	got, err := s.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.RefreshTokenHash != "new" {
		t.Errorf("hash = %q, want new", got.RefreshTokenHash)
	}
}

func TestRotateRefreshHashConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := newAccount(t, "a@x.com")
	a.RefreshTokenHash = "stale"
	if err := s.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.RotateRefreshHash(ctx, a.ID, "stale", "winner")
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, credo.ErrRefreshHashMismatch):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}
