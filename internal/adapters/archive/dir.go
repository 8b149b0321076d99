package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

type DirArchive struct {
	root string
}

var _ ports.RoundArchive = (*DirArchive)(nil)

func NewDirArchive(root string) (*DirArchive, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	return &DirArchive{root: root}, nil
}

func (a *DirArchive) Root() string {
	return a.root
}

func (a *DirArchive) Archive(ctx context.Context, round domain.Round) error {
	dir, items, err := objects(round)
	if err != nil {
		return err
	}

	target := filepath.Join(a.root, dir)
	if err := os.MkdirAll(target, dirMode); err != nil {
		return fmt.Errorf("create archive directory %s: %w", target, err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(target, item.Name), item.Data); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp archive file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp archive file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp archive file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp archive file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("move archive file into place: %w", err)
	}

	cleanup = false
	return nil
}
