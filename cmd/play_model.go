package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	statusadapter "github.com/bnema/evo/internal/adapters/render/status"
	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// playController is what the terminal session drives.
type playController interface {
	StartRound(ctx context.Context) (application.Snapshot, error)
	Reset(ctx context.Context, confirmed bool) (application.Snapshot, error)
}

type directVoter interface {
	Direct(ctx context.Context, slot domain.VariantSlot) (application.VoteOutcome, error)
}

type snapshotMsg struct {
	snapshot application.Snapshot
}

type updatesClosedMsg struct{}

type actionDoneMsg struct {
	action string
	err    error
}

var (
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	askStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

type playModel struct {
	ctx        context.Context
	controller playController
	voter      directVoter
	updates    <-chan application.Snapshot
	snapshot   application.Snapshot
	spinner    spinner.Model
	now        func() time.Time
	confirming bool
	lastErr    error
}

func newPlayModel(ctx context.Context, controller playController, voter directVoter, updates <-chan application.Snapshot, initial application.Snapshot, now func() time.Time) playModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return playModel{
		ctx:        ctx,
		controller: controller,
		voter:      voter,
		updates:    updates,
		snapshot:   initial,
		spinner:    s,
		now:        now,
	}
}

func (m playModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForSnapshot())
}

func (m playModel) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snapshot, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case snapshotMsg:
		m.snapshot = msg.snapshot
		return m, m.waitForSnapshot()
	case updatesClosedMsg:
		return m, tea.Quit
	case credentialPromptMsg:
		return m, tea.Exec(msg.exec, func(err error) tea.Msg {
			return actionDoneMsg{action: "api key", err: err}
		})
	case actionDoneMsg:
		m.lastErr = nil
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.lastErr = fmt.Errorf("%s: %w", msg.action, msg.err)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m playModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirming {
		m.confirming = false
		if key == "y" || key == "Y" {
			return m, m.action("reset", func(ctx context.Context) error {
				_, err := m.controller.Reset(ctx, true)
				return err
			})
		}
		return m, nil
	}

	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "1", "2":
		slot := domain.Slot1
		if key == "2" {
			slot = domain.Slot2
		}
		return m, m.action("vote", func(ctx context.Context) error {
			_, err := m.voter.Direct(ctx, slot)
			return err
		})
	case "g", "enter":
		return m, m.action("generate", func(ctx context.Context) error {
			_, err := m.controller.StartRound(ctx)
			return err
		})
	case "r":
		m.confirming = true
		return m, nil
	default:
		return m, nil
	}
}

func (m playModel) action(name string, run func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: name, err: run(ctx)}
	}
}

func (m playModel) View() string {
	parts := []string{
		statusadapter.Render(statusadapter.FromSnapshot(m.snapshot), statusadapter.RenderOptions{Now: m.now()}),
		"",
	}

	if m.snapshot.InFlight {
		parts = append(parts, m.spinner.View()+" "+application.StatusGenerating)
	}
	if m.lastErr != nil {
		parts = append(parts, errorStyle.Render(m.lastErr.Error()))
	}
	if m.confirming {
		parts = append(parts, askStyle.Render("Reset the session to the seed image? [y/N]"))
	} else {
		parts = append(parts, helpStyle.Render(playHelp(m.snapshot)))
	}

	return strings.Join(parts, "\n") + "\n"
}

func playHelp(snapshot application.Snapshot) string {
	keys := []string{}
	if snapshot.AcceptingVotes() {
		keys = append(keys, "1/2 vote")
	}
	if canStartRound(snapshot) {
		keys = append(keys, "g generate")
	}
	keys = append(keys, "r reset", "q quit")
	return strings.Join(keys, " · ")
}

// canStartRound mirrors the controller's start guard: fresh variants must
// be decided first.
func canStartRound(snapshot application.Snapshot) bool {
	if snapshot.InFlight {
		return false
	}
	return !(snapshot.Phase == domain.PhaseAwaitingDecision && snapshot.AcceptingVotes())
}
