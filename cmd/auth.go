package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the image backend API key",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthRemoveCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API key for the configured backend",
		Long:  "Store the API key in pass when available, otherwise in ~/.evo/secrets. Without --value the key is asked for interactively.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			value = strings.TrimSpace(value)
			if value == "" {
				prompted, err := app.prompter.PromptCredential(ctx)
				if err != nil {
					return fmt.Errorf("read API key (or pass --value): %w", err)
				}
				value = prompted
			}

			if warning := app.credentialValidator()(value); warning != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}

			resolver := app.newCredentialResolver(nil, app.logger)
			if err := resolver.Save(ctx, value); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Stored %s API key.\n", app.cfg.Backend.Provider)
			return err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "API key value")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the stored API key for the configured backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver := app.newCredentialResolver(nil, app.logger)
			if err := resolver.Forget(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %s API key.\n", app.cfg.Backend.Provider)
			return err
		},
	}
}
