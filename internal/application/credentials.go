package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
)

const DefaultCredentialKey = "evo/backend/api_key"

// CredentialValidator inspects a credential and returns a warning when it
// looks malformed. Warnings never block a round.
type CredentialValidator func(credential string) string

// CredentialResolver resolves the backend credential once per session:
// in-memory cache first, then the secret store, then the user.
type CredentialResolver struct {
	cache    ports.CredentialCache
	store    ports.SecretStore
	prompter ports.CredentialPrompter
	key      string
	validate CredentialValidator
	logger   *slog.Logger
}

type CredentialResolverOptions struct {
	Cache     ports.CredentialCache
	Store     ports.SecretStore
	Prompter  ports.CredentialPrompter
	Key       string
	Validator CredentialValidator
	Logger    *slog.Logger
}

func NewCredentialResolver(opts CredentialResolverOptions) *CredentialResolver {
	if opts.Key == "" {
		opts.Key = DefaultCredentialKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cache == nil {
		opts.Cache = &plainCredentialCache{}
	}

	return &CredentialResolver{
		cache:    opts.Cache,
		store:    opts.Store,
		prompter: opts.Prompter,
		key:      opts.Key,
		validate: opts.Validator,
		logger:   opts.Logger,
	}
}

func (r *CredentialResolver) Resolve(ctx context.Context) (string, error) {
	if value, ok := r.cache.Load(); ok {
		return value, nil
	}

	value, err := r.lookup(ctx)
	if err != nil {
		return "", err
	}

	if r.validate != nil {
		if warning := r.validate(value); warning != "" {
			r.logger.Warn("credential format might be incorrect", "reason", warning)
		}
	}

	if err := r.cache.Store(value); err != nil {
		return "", fmt.Errorf("cache credential: %w", err)
	}

	return value, nil
}

func (r *CredentialResolver) lookup(ctx context.Context) (string, error) {
	if r.store != nil {
		value, err := r.store.Get(ctx, r.key)
		switch {
		case err == nil && strings.TrimSpace(value) != "":
			return strings.TrimSpace(value), nil
		case err != nil && !errors.Is(err, domain.ErrSecretNotFound):
			r.logger.Warn("read stored credential", "key", r.key, "error", err)
		}
	}

	if r.prompter == nil {
		return "", domain.ErrCredentialMissing
	}

	value, err := r.prompter.PromptCredential(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCredentialMissing, err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", domain.ErrCredentialMissing
	}

	return value, nil
}

// Save stores the credential in the secret store and the session cache.
func (r *CredentialResolver) Save(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.ErrCredentialMissing
	}
	if r.store == nil {
		return errors.New("no secret store configured")
	}

	if err := r.store.Put(ctx, r.key, value); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	return r.cache.Store(value)
}

// Forget removes the stored credential and clears the session cache.
func (r *CredentialResolver) Forget(ctx context.Context) error {
	r.cache.Clear()
	if r.store == nil {
		return nil
	}

	if err := r.store.Delete(ctx, r.key); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
		return fmt.Errorf("delete credential: %w", err)
	}

	return nil
}

// Clear drops the session cache only; the secret store is untouched.
func (r *CredentialResolver) Clear() {
	r.cache.Clear()
}

type plainCredentialCache struct {
	mu    sync.Mutex
	value string
	set   bool
}

func (c *plainCredentialCache) Load() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set
}

func (c *plainCredentialCache) Store(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.set = true
	return nil
}

func (c *plainCredentialCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = ""
	c.set = false
}
