package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/evo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsKeysOutsideRoot(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	for _, key := range []string{"", "  ", "/etc/passwd", "../escape", "..", "evo/../../up"} {
		t.Run(key, func(t *testing.T) {
			err := store.Put(context.Background(), key, "value")
			require.Error(t, err)
		})
	}
}

func TestStoreRoundTripTrimsAndRestrictsPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	key := "evo/backend/api_key"

	require.NoError(t, store.Put(context.Background(), key, "AIza-secret\n"))

	got, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "AIza-secret", got)

	info, err := os.Stat(filepath.Join(root, key))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	require.NoError(t, store.Put(context.Background(), key, "rotated"))
	got, err = store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got)

	entries, err := os.ReadDir(filepath.Join(root, "evo", "backend"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreMissingSecretIsNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	_, err := store.Get(context.Background(), "evo/backend/api_key")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)

	require.NoError(t, store.Delete(context.Background(), "evo/backend/api_key"))
}

func TestStoreHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewStore(t.TempDir())
	require.ErrorIs(t, store.Put(ctx, "evo/key", "v"), context.Canceled)
}
