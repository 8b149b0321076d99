// Package prompt asks the user for input with huh forms when stdin is a
// terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/evo/internal/ports"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

var ErrNotInteractive = errors.New("stdin is not a terminal")

type Prompter struct {
	backend     string
	interactive func() bool
}

var _ ports.CredentialPrompter = (*Prompter)(nil)

func NewPrompter(backend string) *Prompter {
	return &Prompter{backend: backend, interactive: IsInteractive}
}

// IsInteractive reports whether stdin is attached to a terminal.
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *Prompter) PromptCredential(ctx context.Context) (string, error) {
	if !p.interactive() {
		return "", ErrNotInteractive
	}

	var value string
	input := huh.NewInput().
		Title(fmt.Sprintf("%s API key", p.backendName())).
		Description("Used for this session only. Run `evo auth set` to store it.").
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("API key is required")
			}
			return nil
		})

	if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("prompt credential: %w", err)
	}

	return strings.TrimSpace(value), nil
}

// ConfirmReset asks before wiping the session. Non-interactive callers
// must pass an explicit flag instead.
func (p *Prompter) ConfirmReset(ctx context.Context) (bool, error) {
	if !p.interactive() {
		return false, ErrNotInteractive
	}

	confirmed := false
	confirm := huh.NewConfirm().
		Title("Reset the session?").
		Description("This returns to the seed image and clears the history and saved state.").
		Affirmative("Reset").
		Negative("Cancel").
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirm reset: %w", err)
	}

	return confirmed, nil
}

func (p *Prompter) backendName() string {
	switch strings.ToLower(p.backend) {
	case "openai":
		return "OpenAI"
	case "", "gemini":
		return "Gemini"
	default:
		return p.backend
	}
}
