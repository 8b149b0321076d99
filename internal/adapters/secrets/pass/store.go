// Package pass stores the backend credential in the user's password-store
// (https://www.passwordstore.org) through the pass command.
//
// Entries follow the pass convention of a secret on the first line and
// "field: value" metadata below it, so keys added by hand with extra
// lines still work.
package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
)

var (
	ErrUnavailable = errors.New("pass command unavailable")
	ErrInvalidKey  = errors.New("invalid pass entry name")
)

const metadataField = "stored-by: evo"

// runner executes pass with args, feeding stdin when it is not empty.
type runner func(ctx context.Context, stdin string, args ...string) (stdout string, stderr string, err error)

type Store struct {
	run runner
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{run: execPass}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	entry, err := entryName(key)
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("pass entry %q: value must be a single non-empty line", entry)
	}

	return s.exec(ctx, "insert", entry, value+"\n"+metadataField+"\n", "insert", "--multiline", "--force", entry)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	entry, err := entryName(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		return "", classify("show", entry, err, stderr)
	}

	first, _, _ := strings.Cut(stdout, "\n")
	secret := strings.TrimSpace(first)
	if secret == "" {
		return "", fmt.Errorf("pass entry %q has an empty first line: %w", entry, domain.ErrSecretNotFound)
	}
	return secret, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	entry, err := entryName(key)
	if err != nil {
		return err
	}
	return s.exec(ctx, "rm", entry, "", "rm", "--force", entry)
}

func (s *Store) exec(ctx context.Context, op string, entry string, stdin string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, stderr, err := s.run(ctx, stdin, args...); err != nil {
		return classify(op, entry, err, stderr)
	}
	return nil
}

// entryName keeps keys inside the password store: relative, slash
// separated and without parent references.
func entryName(key string) (string, error) {
	key = strings.TrimSpace(key)
	clean := path.Clean(key)
	if key == "" || clean != key || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}

func execPass(ctx context.Context, stdin string, args ...string) (string, string, error) {
	bin, err := exec.LookPath("pass")
	if errors.Is(err, exec.ErrNotFound) {
		return "", "", ErrUnavailable
	}
	if err != nil {
		return "", "", fmt.Errorf("locate pass: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

// classify maps pass failures to the errors the secret chain falls back on.
func classify(op string, entry string, err error, stderr string) error {
	switch {
	case errors.Is(err, ErrUnavailable):
		return err
	case strings.Contains(stderr, "is not in the password store"):
		return fmt.Errorf("pass %s %q: %w", op, entry, domain.ErrSecretNotFound)
	case strings.Contains(stderr, "pass init"):
		return fmt.Errorf("pass %s %q: store not initialized: %w", op, entry, ErrUnavailable)
	case stderr == "":
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	default:
		return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
	}
}
