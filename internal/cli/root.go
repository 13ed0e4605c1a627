// Package cli provides the command-line interface for querydesk.
package cli

import (
	"github.com/spf13/cobra"
)

// offlineAnnotation marks commands that never call the query service.
const offlineAnnotation = "querydesk/offline"

// Version is set at build time.
var Version = "0.1.0"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command for the querydesk CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	e := &env{opts: opts}

	cmd := &cobra.Command{
		Use:   "querydesk",
		Short: "Connect, ingest and query through the querydesk service",
		Long: `querydesk drives the four-step workflow of the query service from a terminal:
connect a data source, upload documents for indexing, ask a question in plain
language, and watch live metrics.

Run "querydesk mock-server" to start an in-memory stand-in for the service.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip config and session setup for cobra's built-in commands
			if skipsEnv(cmd) {
				return nil
			}
			return e.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ./configs/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newConnectCommand(e))
	cmd.AddCommand(newUploadCommand(e))
	cmd.AddCommand(newQueryCommand(e))
	cmd.AddCommand(newSuggestCommand(e))
	cmd.AddCommand(newHistoryCommand(e))
	cmd.AddCommand(newMetricsCommand(e))
	cmd.AddCommand(newThemeCommand(e))
	cmd.AddCommand(newHealthCommand(e))
	cmd.AddCommand(newMockServerCommand(e))

	// Release the session and store even when a command fails; cobra skips
	// post-run hooks on error.
	for _, sub := range cmd.Commands() {
		run := sub.RunE
		if run == nil {
			continue
		}
		sub.RunE = func(c *cobra.Command, args []string) error {
			defer e.close()
			return run(c, args)
		}
	}

	return cmd
}

func skipsEnv(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return cmd.HasParent() && cmd.Parent().Name() == "completion"
}
