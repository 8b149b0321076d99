package cmd

import (
	"context"
	"io"
	"sync"

	"github.com/bnema/evo/internal/ports"
	tea "github.com/charmbracelet/bubbletea"
)

// messageSender is the part of *tea.Program the prompter needs.
type messageSender interface {
	Send(msg tea.Msg)
}

type credentialResult struct {
	value string
	err   error
}

// credentialPromptMsg asks the running program to hand the terminal to a
// credential form.
type credentialPromptMsg struct {
	exec *credentialPromptExec
}

// credentialPromptExec runs the form while the program is suspended.
type credentialPromptExec struct {
	ctx      context.Context
	prompter ports.CredentialPrompter
	result   chan<- credentialResult
}

var _ tea.ExecCommand = (*credentialPromptExec)(nil)

func (e *credentialPromptExec) Run() error {
	value, err := e.prompter.PromptCredential(e.ctx)
	e.result <- credentialResult{value: value, err: err}
	return err
}

// The form opens the terminal itself.
func (e *credentialPromptExec) SetStdin(io.Reader)  {}
func (e *credentialPromptExec) SetStdout(io.Writer) {}
func (e *credentialPromptExec) SetStderr(io.Writer) {}

// suspendingPrompter prompts directly until a program is attached. After
// that, prompts go through the program so only one reader owns stdin.
type suspendingPrompter struct {
	prompter ports.CredentialPrompter

	mu      sync.Mutex
	program messageSender
}

var _ ports.CredentialPrompter = (*suspendingPrompter)(nil)

func newSuspendingPrompter(prompter ports.CredentialPrompter) *suspendingPrompter {
	return &suspendingPrompter{prompter: prompter}
}

func (p *suspendingPrompter) attach(program messageSender) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.program = program
}

func (p *suspendingPrompter) detach() {
	p.attach(nil)
}

func (p *suspendingPrompter) PromptCredential(ctx context.Context) (string, error) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program == nil {
		return p.prompter.PromptCredential(ctx)
	}

	result := make(chan credentialResult, 1)
	program.Send(credentialPromptMsg{exec: &credentialPromptExec{ctx: ctx, prompter: p.prompter, result: result}})

	select {
	case r := <-result:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
