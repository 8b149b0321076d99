package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "evo",
		Short:         "evo: evolve an image one vote at a time",
		Long:          "evo starts from a seed image, asks an image model for two edited variants per round, and lets votes from the keyboard, GPIO buttons or HTTP pick which one the next round builds on.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAuthCmd(app),
		newPlayCmd(app),
		newServeCmd(app),
		newRoundCmd(app),
		newVoteCmd(app),
		newResetCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}
