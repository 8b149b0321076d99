package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bnema/evo/internal/adapters/httpapi"
	"github.com/bnema/evo/internal/adapters/prompt"
	"github.com/spf13/cobra"
)

func addAddrFlag(cmd *cobra.Command, app *app, addr *string) {
	cmd.Flags().StringVar(addr, "addr", app.cfg.Server.Addr, "Address of a running `evo serve`")
}

func newRoundCmd(app *app) *cobra.Command {
	var addr string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "round",
		Short: "Start or continue the session on a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := httpapi.NewClient(addr, app.httpClient).StartRound(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), state)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Round %d: %s\n", state.Round, state.Status)
			return err
		},
	}

	addAddrFlag(cmd, app, &addr)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newVoteCmd(app *app) *cobra.Command {
	var addr string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "vote <1|2>",
		Short: "Vote for a variant on a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlotArg(args[0])
			if err != nil {
				return err
			}

			resp, err := httpapi.NewClient(addr, app.httpClient).Vote(cmd.Context(), slot)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			return writeVote(cmd.OutOrStdout(), resp)
		},
	}

	addAddrFlag(cmd, app, &addr)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func writeVote(w io.Writer, resp httpapi.VoteResponse) error {
	votes := 0
	if resp.Slot == 1 || resp.Slot == 2 {
		votes = resp.Votes[resp.Slot-1]
	}
	switch {
	case resp.Finalized && resp.NextRound > 0:
		_, err := fmt.Fprintf(w, "Variant %d wins with %d votes. Round %d started.\n", resp.Slot, votes, resp.NextRound)
		return err
	case resp.Finalized:
		_, err := fmt.Fprintf(w, "Variant %d selected with %d votes.\n", resp.Slot, votes)
		return err
	default:
		_, err := fmt.Fprintf(w, "Variant %d: %d votes (variant 1: %d, variant 2: %d)\n",
			resp.Slot, votes, resp.Votes[0], resp.Votes[1])
		return err
	}
}

func newResetCmd(app *app) *cobra.Command {
	var addr string
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the session on a running server",
		Long:  "Return a running session to the seed image, clear the history and saved state, and refill the instruction pool. Asks for confirmation unless --yes is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				confirmed, err := app.prompter.ConfirmReset(cmd.Context())
				if errors.Is(err, prompt.ErrNotInteractive) {
					return errors.New("refusing to reset without confirmation: pass --yes")
				}
				if err != nil {
					return err
				}
				if !confirmed {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled.")
					return err
				}
			}

			state, err := httpapi.NewClient(addr, app.httpClient).Reset(cmd.Context(), true)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), state.Status)
			return err
		},
	}

	addAddrFlag(cmd, app, &addr)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
