package instructions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/evo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSourceFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "json",
			file:    "instructions.json",
			content: `{"random_instructions": ["Make it red", "  ", "Add a hat"]}`,
		},
		{
			name:    "yaml",
			file:    "instructions.yaml",
			content: "random_instructions:\n  - Make it red\n  - \"\"\n  - Add a hat\n",
		},
		{
			name:    "yml",
			file:    "instructions.yml",
			content: "random_instructions: [Make it red, Add a hat]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewFileSource(writeFile(t, tt.file, tt.content))

			items, err := source.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []domain.Instruction{"Make it red", "Add a hat"}, items)
		})
	}
}

func TestFileSourceEmptyList(t *testing.T) {
	source := NewFileSource(writeFile(t, "instructions.json", `{"random_instructions": []}`))

	_, err := source.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrNoInstructions)
}

func TestFileSourceMalformed(t *testing.T) {
	source := NewFileSource(writeFile(t, "instructions.json", `{"random_instructions": [`))

	_, err := source.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode json")
}

func TestFileSourceMissingFile(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "missing.json"))

	_, err := source.Load(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileSourceDefaultsWithoutPath(t *testing.T) {
	items, err := NewFileSource("").Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, items)

	for _, item := range items {
		assert.NotEqual(t, item.String(), item.PastTense(), "default instruction %q should start with a known verb", item)
	}
}
