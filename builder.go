package credo

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/credo-auth/credo/mail"
	"github.com/credo-auth/credo/password"
	"github.com/credo-auth/credo/token"
)

// Builder assembles an [Engine] from a validated [Config] and the host
// application's collaborators. A repository is mandatory; everything else
// has a sensible default so a test or a prototype can come up with two
// calls.
type Builder struct {
	config      Config
	configSet   bool
	repo        Repository
	hasher      Hasher
	sender      mail.Sender
	revocations RevocationStore
	clock       Clock
	logger      *slog.Logger
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// WithConfig sets the engine configuration. Validation happens in
// [Builder.Build], not here.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	b.configSet = true
	return b
}

// WithRepository sets the account store. Required.
func (b *Builder) WithRepository(repo Repository) *Builder {
	b.repo = repo
	return b
}

// WithHasher overrides the password hasher. Defaults to argon2id with
// [password.DefaultParams].
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithEmailSender sets the outbound mail collaborator. Defaults to
// [mail.LogSender], which is only suitable for development.
func (b *Builder) WithEmailSender(s mail.Sender) *Builder {
	b.sender = s
	return b
}

// WithRevocationStore sets the token denylist backend.
func (b *Builder) WithRevocationStore(s RevocationStore) *Builder {
	b.revocations = s
	return b
}

// WithRedis is a convenience for the common deployment: it wires a
// [RedisRevocationStore] over the given client using the configured key
// prefix.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	prefix := b.config.RevocationPrefix
	if prefix == "" {
		prefix = DefaultConfig().RevocationPrefix
	}
	b.revocations = NewRedisRevocationStore(client, prefix)
	return b
}

// WithClock overrides the time source. Tests use this to pin expiry
// behaviour.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates the configuration and returns a ready Engine. The
// returned Engine owns no goroutines; a default in-memory revocation
// store, if one had to be created, is the single exception and is stopped
// by [Engine.Close].
func (b *Builder) Build() (*Engine, error) {
	cfg := b.config
	if !b.configSet {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("credo: config: %w", err)
	}
	if b.repo == nil {
		return nil, fmt.Errorf("credo: %w: repository is required", ErrEngineNotReady)
	}

	codec, err := token.NewCodec(cfg.tokenConfig())
	if err != nil {
		return nil, fmt.Errorf("credo: token codec: %w", err)
	}

	hasher := b.hasher
	if hasher == nil {
		hasher, err = password.New(password.DefaultParams())
		if err != nil {
			return nil, fmt.Errorf("credo: hasher: %w", err)
		}
	}
	sender := b.sender
	if sender == nil {
		sender = mail.LogSender{Logger: b.logger}
	}
	clock := b.clock
	if clock == nil {
		clock = SystemClock()
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		config:      cfg,
		codec:       codec,
		policy:      cfg.policyEngine(),
		repo:        b.repo,
		hasher:      hasher,
		sender:      sender,
		revocations: b.revocations,
		clock:       clock,
		logger:      logger,
	}
	e.codec = e.codec.WithNow(clock.Now)
	if e.revocations == nil {
		mem := NewMemoryRevocationStore(time.Minute)
		e.revocations = mem
		e.ownedStore = mem
	}
	return e, nil
}

// Close releases resources the engine created itself. Stores injected by
// the caller are left alone.
func (e *Engine) Close() error {
	if e.ownedStore != nil {
		e.ownedStore.Close()
	}
	return nil
}
