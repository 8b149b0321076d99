// Package badger mirrors session state into an embedded Badger database.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	"github.com/dgraph-io/badger/v4"
)

const (
	keyPrefix = "mirror/"
	dirMode   = 0o700

	DefaultQuotaBytes int64 = 5 << 20
)

type Config struct {
	Path     string
	InMemory bool
	Quota    int64
	Logger   *slog.Logger
}

type Store struct {
	db    *badger.DB
	quota int64
}

var _ ports.StateMirror = (*Store)(nil)

func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger mirror path is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, dirMode); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&slogBridge{logger: cfg.Logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger mirror: %w", err)
	}

	quota := cfg.Quota
	if quota <= 0 {
		quota = DefaultQuotaBytes
	}

	return &Store{db: db, quota: quota}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storageKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", domain.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read mirror key %q: %w", key, err)
	}

	return string(value), nil
}

// Put fails with domain.ErrQuotaExceeded when the mirrored entries would
// exceed the quota.
func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		used, err := usage(txn, key)
		if err != nil {
			return err
		}
		if total := used + int64(len(key)+len(value)); total > s.quota {
			return fmt.Errorf("%w: %d bytes over %d", domain.ErrQuotaExceeded, total, s.quota)
		}

		if err := txn.Set(storageKey(key), []byte(value)); err != nil {
			return fmt.Errorf("write mirror key %q: %w", key, err)
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(storageKey(key)); err != nil {
			return fmt.Errorf("delete mirror key %q: %w", key, err)
		}
		return nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.DropPrefix([]byte(keyPrefix)); err != nil {
		return fmt.Errorf("clear badger mirror: %w", err)
	}
	return nil
}

// usage sums the entry sizes of every key except skip.
func usage(txn *badger.Txn, skip string) (int64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(keyPrefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	skipKey := string(storageKey(skip))
	var total int64
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if key == skipKey {
			continue
		}
		total += int64(len(key)-len(keyPrefix)) + item.ValueSize()
	}
	return total, nil
}

func storageKey(key string) []byte {
	return []byte(keyPrefix + key)
}

type slogBridge struct {
	logger *slog.Logger
}

func (l *slogBridge) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *slogBridge) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *slogBridge) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *slogBridge) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
