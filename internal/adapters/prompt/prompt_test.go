package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompterRefusesWithoutTerminal(t *testing.T) {
	p := &Prompter{backend: "gemini", interactive: func() bool { return false }}

	_, err := p.PromptCredential(context.Background())
	require.ErrorIs(t, err, ErrNotInteractive)

	confirmed, err := p.ConfirmReset(context.Background())
	require.ErrorIs(t, err, ErrNotInteractive)
	assert.False(t, confirmed)
}

func TestPrompterBackendName(t *testing.T) {
	tests := map[string]string{
		"":       "Gemini",
		"gemini": "Gemini",
		"OpenAI": "OpenAI",
		"custom": "custom",
	}
	for backend, want := range tests {
		assert.Equal(t, want, (&Prompter{backend: backend}).backendName())
	}
}
