package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	tomlmirror "github.com/bnema/evo/internal/adapters/mirror/toml"
	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestInvalidConfigIsReported(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfig(home, "[backend]\nprovider = \"dalle\"\n"))

	_, _, err := executeCLI(t, home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestAuthSetAndRemove(t *testing.T) {
	home := t.TempDir()

	stdout, stderr, err := executeCLI(t, home, "auth", "set", "--value", "not-a-google-key")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Stored gemini API key.")
	assert.Contains(t, stderr, "warning: Gemini API keys usually start with AIza")

	stdout, _, err = executeCLI(t, home, "auth", "remove")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed gemini API key.")

	stdout, _, err = executeCLI(t, home, "auth", "remove")
	require.NoError(t, err, "removing a missing key is not an error")
	assert.Contains(t, stdout, "Removed gemini API key.")
}

func TestAuthSetWithoutValueNeedsTerminal(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "auth", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "or pass --value")
}

func TestStatusWithoutSavedState(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "round: 0 · idle")
	assert.Contains(t, stdout, "No variants to choose from.")
	assert.Contains(t, stdout, "No decided rounds yet.")
}

func TestStatusReadsMirror(t *testing.T) {
	home := t.TempDir()
	writeMirrorFixture(t, home)

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "round: 2 · awaiting decision")
	assert.Contains(t, stdout, "Made it red")
	assert.Contains(t, stdout, "Added a hat")
	assert.Contains(t, stdout, "history: 1 rounds")
	assert.Contains(t, stdout, "#1 Blurred it over Turned it blue")
}

func TestStatusJSONOmitsImagesByDefault(t *testing.T) {
	home := t.TempDir()
	writeMirrorFixture(t, home)

	stdout, _, err := executeCLI(t, home, "status", "--json")
	require.NoError(t, err)

	var state application.MirrorState
	require.NoError(t, json.Unmarshal([]byte(stdout), &state))
	assert.Equal(t, 2, state.GenerationCount)
	assert.Equal(t, "Make it red", state.Variants[0].Instruction)
	assert.Empty(t, state.Variants[0].Image)
	assert.Empty(t, state.CurrentImage)
	require.Len(t, state.History, 1)

	stdout, _, err = executeCLI(t, home, "status", "--json", "--images")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &state))
	assert.Equal(t, "data:image/png;base64,b25l", state.Variants[0].Image)
}

func TestRoundCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/round", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		_, _ = fmt.Fprint(w, `{"round":3,"generating":true,"status":"Generating variants..."}`)
	}))
	defer server.Close()

	stdout, _, err := executeCLI(t, t.TempDir(), "round", "--addr", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Round 3: Generating variants...\n", stdout)
}

func TestVoteCommand(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "counting",
			response: `{"slot":2,"votes":[1,2],"reached":false,"finalized":false}`,
			want:     "Variant 2: 2 votes (variant 1: 1, variant 2: 2)\n",
		},
		{
			name:     "chained",
			response: `{"slot":2,"votes":[0,3],"reached":true,"finalized":true,"next_round":4}`,
			want:     "Variant 2 wins with 3 votes. Round 4 started.\n",
		},
		{
			name:     "manual advance",
			response: `{"slot":2,"votes":[0,3],"reached":true,"finalized":true}`,
			want:     "Variant 2 selected with 3 votes.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/vote/2", r.URL.Path)
				_, _ = fmt.Fprint(w, tt.response)
			}))
			defer server.Close()

			stdout, _, err := executeCLI(t, t.TempDir(), "vote", "2", "--addr", server.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestVoteCommandErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = fmt.Fprint(w, `{"error":"no variants are open for voting","code":"voting_closed"}`)
	}))
	defer server.Close()

	_, _, err := executeCLI(t, t.TempDir(), "vote", "1", "--addr", server.URL)
	require.ErrorIs(t, err, domain.ErrVotingClosed)

	_, _, err = executeCLI(t, t.TempDir(), "vote", "3", "--addr", server.URL)
	require.ErrorIs(t, err, domain.ErrInvalidVariant)
}

func TestResetRequiresConfirmation(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called.Store(true)
	}))
	defer server.Close()

	_, _, err := executeCLI(t, t.TempDir(), "reset", "--addr", server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass --yes")
	assert.False(t, called.Load())
}

func TestResetWithYes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reset", r.URL.Path)

		var req struct {
			Confirm bool `json:"confirm"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Confirm)
		_, _ = fmt.Fprint(w, `{"round":0,"status":"Session reset. Generate a new image to start."}`)
	}))
	defer server.Close()

	stdout, _, err := executeCLI(t, t.TempDir(), "reset", "--yes", "--addr", server.URL)
	require.NoError(t, err)
	assert.Equal(t, application.StatusReset+"\n", stdout)
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("EVO_HOME", filepath.Join(home, ".evo"))
	t.Setenv("PASSWORD_STORE_DIR", filepath.Join(home, ".password-store"))

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(home string, content string) error {
	configDir := filepath.Join(home, ".evo")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644)
}

func writeMirrorFixture(t *testing.T, home string) {
	t.Helper()

	store, err := tomlmirror.NewStore(filepath.Join(home, ".evo", "state.toml"), 0)
	require.NoError(t, err)

	ctx := context.Background()
	mirror := application.NewMirrorSync(store, nil)
	mirror.SaveVariants(ctx, domain.Round{
		Number: 2,
		Variants: [2]domain.Variant{
			domain.NewVariant(domain.Slot1, "Make it red", domain.NewImage([]byte("one"), "image/png")),
			domain.NewVariant(domain.Slot2, "Add a hat", domain.NewImage([]byte("two"), "image/png")),
		},
	})
	mirror.SaveSelection(ctx, domain.NewImage([]byte("current"), "image/png"), []domain.Round{
		{
			Number: 1,
			Variants: [2]domain.Variant{
				domain.NewVariant(domain.Slot1, "Blur it", domain.Image{}),
				domain.NewVariant(domain.Slot2, "Turn it blue", domain.Image{}),
			},
			Selected:  domain.Slot1,
			DecidedAt: time.Now().Add(-time.Minute),
		},
	})
}
