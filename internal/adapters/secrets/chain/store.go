// Package chain combines two secret stores: writes go to the primary
// unless it fails, reads fall back to the secondary.
package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/evo/internal/adapters/secrets/file"
	passstore "github.com/bnema/evo/internal/adapters/secrets/pass"
	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
)

type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errors.New("primary secret store is nil")
	}
	if fallback == nil {
		return nil, errors.New("fallback secret store is nil")
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

// NewPassWithFileFallback prefers pass and falls back to files under root.
func NewPassWithFileFallback(root string) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(root))
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil || isContextErr(err) {
		return value, err
	}

	value, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return value, nil
	}

	if errors.Is(err, domain.ErrSecretNotFound) || errors.Is(err, passstore.ErrUnavailable) {
		if errors.Is(fallbackErr, domain.ErrSecretNotFound) {
			return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
		}
	}

	return "", fmt.Errorf("primary get: %w; fallback get: %w", err, fallbackErr)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil || isContextErr(err) {
		return err
	}

	if fallbackErr := s.fallback.Put(ctx, key, value); fallbackErr != nil {
		return fmt.Errorf("primary put: %w; fallback put: %w", err, fallbackErr)
	}
	return nil
}

// Delete removes the key from both stores so a stale copy cannot
// resurface through the fallback.
func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, store := range []ports.SecretStore{s.primary, s.fallback} {
		err := store.Delete(ctx, key)
		if isContextErr(err) {
			return err
		}
		if err != nil && !errors.Is(err, domain.ErrSecretNotFound) && !errors.Is(err, passstore.ErrUnavailable) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
