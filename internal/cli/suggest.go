package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCommand(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Autocomplete table, column and alias names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.session.Steps().Connected {
				return errors.New("no data source connected: run \"querydesk connect\" first")
			}

			for _, token := range e.session.Vocabulary.Suggest(args[0], limit) {
				fmt.Fprintln(cmd.OutOrStdout(), token)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum suggestions (0 for all)")
	return cmd
}
