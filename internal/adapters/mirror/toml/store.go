// Package toml mirrors session state into a single TOML file that is
// replaced atomically on every write.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	fileMode        = 0o600
	dirMode         = 0o700
	tempFilePattern = ".state-*.toml.tmp"

	DefaultQuotaBytes int64 = 5 << 20
)

type Store struct {
	path  string
	quota int64
	now   func() time.Time
	mu    *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLocks      = map[string]*sync.RWMutex{}
)

var _ ports.StateMirror = (*Store)(nil)

// NewStore opens the mirror at path. A quota of zero or less uses
// DefaultQuotaBytes.
func NewStore(path string, quota int64) (*Store, error) {
	if path == "" {
		return nil, errors.New("mirror path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve mirror path: %w", err)
	}
	abs = filepath.Clean(abs)

	if quota <= 0 {
		quota = DefaultQuotaBytes
	}

	return &Store{path: abs, quota: quota, now: time.Now, mu: lockForPath(abs)}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.read()
	if err != nil {
		return "", err
	}

	value, ok := file.Entries[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

// Put fails with domain.ErrQuotaExceeded when the file would grow past the
// quota. Nothing is written in that case.
func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}

	file.Entries[key] = value
	if size := file.size(); size > s.quota {
		return fmt.Errorf("%w: %d bytes over %d", domain.ErrQuotaExceeded, size, s.quota)
	}

	return s.write(file)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := file.Entries[key]; !ok {
		return nil
	}

	delete(file.Entries, key)
	return s.write(file)
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove mirror file: %w", err)
	}
	return nil
}

func (s *Store) read() (fileSchema, error) {
	var file fileSchema

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		file.applyDefaults()
		return file, nil
	}
	if err != nil {
		return fileSchema{}, fmt.Errorf("read mirror file: %w", err)
	}

	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode mirror file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *Store) write(file fileSchema) error {
	file.applyDefaults()
	file.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("create mirror directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode mirror file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp mirror file: %w", err)
	}
	tmpName := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp mirror file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp mirror file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp mirror file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace mirror file: %w", err)
	}
	keep = true

	return nil
}

// lockForPath shares one lock between stores opened on the same file.
func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLocks[path]; ok {
		return mu
	}
	mu := &sync.RWMutex{}
	pathLocks[path] = mu
	return mu
}
