package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/evo/internal/adapters/buttons"
	"github.com/bnema/evo/internal/adapters/httpapi"
	"github.com/bnema/evo/internal/adapters/metrics"
	"github.com/bnema/evo/internal/adapters/prompt"
	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/ports"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(app *app) *cobra.Command {
	var addr string
	var buttonsURL string
	var start bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless session behind an HTTP API",
		Long:  "Run a session without a terminal UI. Rounds, votes and resets arrive over HTTP (see `evo round`, `evo vote`, `evo reset`) or from the button daemon; GET /events streams every state change.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := app.logger.With("command", "serve")
			recorder := metrics.NewRecorder()

			var prompter ports.CredentialPrompter
			if prompt.IsInteractive() {
				prompter = app.prompter
			}

			sess, err := app.newSession(ctx, sessionOptions{logger: logger, metrics: recorder, prompter: prompter})
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			if err := sess.resolveCredential(ctx); err != nil {
				return err
			}

			relay := application.NewInputRelay(sess.controller, app.cfg.Buttons.Debounce, ports.SystemClock{}, logger)
			gin.SetMode(gin.ReleaseMode)
			router := httpapi.NewRouter(sess.controller, httpapi.Options{Metrics: recorder.Handler(), Relay: relay, Logger: logger})

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return sess.controller.Run(groupCtx)
			})
			group.Go(func() error {
				return httpapi.Serve(groupCtx, addr, router, logger)
			})
			if buttonsURL != "" {
				group.Go(func() error {
					return buttons.NewClient(buttonsURL, logger).Run(groupCtx, relay)
				})
			}
			if start {
				group.Go(func() error {
					_, err := sess.controller.StartRound(groupCtx)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				})
			}

			return group.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", app.cfg.Server.Addr, "Listen address")
	cmd.Flags().StringVar(&buttonsURL, "buttons", app.cfg.Buttons.URL, "Button daemon websocket URL (empty disables)")
	cmd.Flags().BoolVar(&start, "start", false, "Start the first round immediately")

	return cmd
}
