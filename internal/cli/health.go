package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the query service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := e.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}
			style := e.styles.Danger
			if health.Status == "ok" {
				style = e.styles.Success
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.cfg.API.BaseURL, style.Render(health.Status))
			return nil
		},
	}
}
