package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bnema/evo/internal/adapters/buttons"
	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/ports"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	playLogFile     = "evo.log"
	playLogFileMode = 0o600
	playUpdates     = 16
)

func newPlayCmd(app *app) *cobra.Command {
	var buttonsURL string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run an interactive session in the terminal",
		Long:  "Run a session in the terminal: g generates, 1 and 2 vote for a variant, r resets, q quits. Presses from the button daemon count as votes too. Logs go to ~/.evo/evo.log.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()

			logFile, err := openPlayLog(app.cfg.Home)
			if err != nil {
				return err
			}
			defer func() { _ = logFile.Close() }()
			logger := newLogger(logFile, app.cfg.Log).With("command", "play")

			prompter := newSuspendingPrompter(app.prompter)
			sess, err := app.newSession(ctx, sessionOptions{logger: logger, prompter: prompter})
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			if err := sess.resolveCredential(ctx); err != nil {
				return err
			}

			return runPlay(ctx, cmd, app, sess.controller, prompter, buttonsURL, logger)
		},
	}

	cmd.Flags().StringVar(&buttonsURL, "buttons", app.cfg.Buttons.URL, "Button daemon websocket URL (empty disables)")

	return cmd
}

func runPlay(ctx context.Context, cmd *cobra.Command, app *app, controller *application.Controller, prompter *suspendingPrompter, buttonsURL string, logger *slog.Logger) error {
	group, groupCtx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(groupCtx)
	defer cancelRun()

	group.Go(func() error {
		return controller.Run(runCtx)
	})

	updates, unsubscribe := controller.Subscribe(playUpdates)
	defer unsubscribe()

	initial, err := controller.Snapshot(runCtx)
	if err != nil {
		cancelRun()
		_ = group.Wait()
		return err
	}

	relay := application.NewInputRelay(controller, app.cfg.Buttons.Debounce, ports.SystemClock{}, logger)
	if buttonsURL != "" {
		group.Go(func() error {
			return buttons.NewClient(buttonsURL, logger).Run(runCtx, relay)
		})
	}

	program := tea.NewProgram(
		newPlayModel(runCtx, controller, relay, updates, initial, app.now),
		tea.WithContext(runCtx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithAltScreen(),
	)
	prompter.attach(program)
	defer prompter.detach()

	_, runErr := program.Run()
	logger.Info("terminal session closed")
	cancelRun()

	if err := group.Wait(); err != nil {
		return err
	}
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal session: %w", runErr)
	}
	return nil
}

func openPlayLog(home string) (*os.File, error) {
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, fmt.Errorf("create %s: %w", home, err)
	}

	path := filepath.Join(home, playLogFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, playLogFileMode)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
