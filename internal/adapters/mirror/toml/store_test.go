package toml

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bnema/evo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, quota int64) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state", "mirror.toml")
	store, err := NewStore(path, quota)
	require.NoError(t, err)
	return store, path
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t, 0)
	ctx := context.Background()

	_, err := store.Get(ctx, "generationCount")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, "generationCount", "4"))
	require.NoError(t, store.Put(ctx, "variant1_instruction", "Make it \"blue\"\nnow"))

	got, err := store.Get(ctx, "variant1_instruction")
	require.NoError(t, err)
	assert.Equal(t, "Make it \"blue\"\nnow", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")

	require.NoError(t, store.Delete(ctx, "generationCount"))
	require.NoError(t, store.Delete(ctx, "generationCount"))
	_, err = store.Get(ctx, "generationCount")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestStoreRejectsWritesOverQuota(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, 64)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "variant1_img", strings.Repeat("a", 40)))
	err := store.Put(ctx, "variant2_img", strings.Repeat("b", 40))
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)

	_, err = store.Get(ctx, "variant2_img")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, store.Delete(ctx, "variant1_img"))
	require.NoError(t, store.Put(ctx, "variant2_img", strings.Repeat("b", 40)))
}

func TestStoreClearRemovesEverything(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "isGenerating", "true"))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = store.Get(ctx, "isGenerating")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestStoreCanceledContext(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Put(ctx, "k", "v"), context.Canceled)
	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestStoreConcurrentWritersShareFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mirror.toml")
	first, err := NewStore(path, 0)
	require.NoError(t, err)
	second, err := NewStore(path, 0)
	require.NoError(t, err)

	const writes = 50
	var wg sync.WaitGroup
	for prefix, store := range map[string]*Store{"a-": first, "b-": second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range writes {
				assert.NoError(t, store.Put(context.Background(), prefix+strconv.Itoa(i), "v"))
			}
		}()
	}
	wg.Wait()

	file, err := first.read()
	require.NoError(t, err)
	assert.Len(t, file.Entries, writes*2)
}

func TestStoreFutureSchemaVersionIsRejected(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mirror.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 999\n"), 0o600))

	store, err := NewStore(path, 0)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "generationCount")
	require.ErrorContains(t, err, "unsupported mirror schema version")
}
