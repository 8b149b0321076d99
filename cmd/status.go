package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/bnema/evo/internal/adapters/render/status"
	"github.com/bnema/evo/internal/application"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool
	var withImages bool
	var historyLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last saved session state",
		Long:  "Read the persisted state mirror and display the last round, its variants and the selection history. Works without a running session.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := loadMirrorState(cmd, app)
			if err != nil {
				return err
			}

			if asJSON {
				if !withImages {
					state = withoutImages(state)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}

			rendered := app.statusRenderer(statusadapter.FromMirror(state), statusadapter.RenderOptions{
				Now:          app.now(),
				HistoryLimit: historyLimit,
			})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&withImages, "images", false, "Include image data URLs in JSON output")
	cmd.Flags().IntVar(&historyLimit, "history", statusadapter.DefaultHistoryLimit, "Rounds of history to list (-1 for all)")

	return cmd
}

func loadMirrorState(cmd *cobra.Command, app *app) (application.MirrorState, error) {
	mirror, closeMirror, err := app.openMirror(app.logger)
	if err != nil {
		return application.MirrorState{}, fmt.Errorf("open state mirror: %w", err)
	}
	defer func() { _ = closeMirror() }()

	state, err := application.NewMirrorSync(mirror, app.logger).Load(cmd.Context())
	if err != nil {
		return application.MirrorState{}, fmt.Errorf("load state mirror: %w", err)
	}
	return state, nil
}

func withoutImages(state application.MirrorState) application.MirrorState {
	state.CurrentImage = ""
	for i := range state.Variants {
		state.Variants[i].Image = ""
	}
	return state
}
