package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timmy/querydesk/internal/mockapi"
	"github.com/timmy/querydesk/internal/mockapi/middleware"
	"github.com/timmy/querydesk/internal/mockapi/store"
)

func newMockServerCommand(e *env) *cobra.Command {
	var (
		port int
		mode string
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory stand-in for the query service",
		Long: `Serve the query service API from memory: a sample HR schema, ingestion jobs
that index one document per status poll, and keyword-matched answers.

Stop it with Ctrl-C.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offlineAnnotation: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			mc := e.cfg.Mock
			if !cmd.Flags().Changed("port") {
				port = mc.Port
			}
			if !cmd.Flags().Changed("mode") {
				mode = mc.Mode
			}

			st := store.New(store.Options{
				DocsPerPoll:  mc.DocsPerPoll,
				MaxFileBytes: int64(mc.MaxUploadMB) << 20,
			})
			router := mockapi.SetupRouter(st, mockapi.Options{
				Mode:   mode,
				CORS:   middleware.CORSConfig{AllowedOrigins: mc.AllowedOrigins},
				Logger: e.log,
			})
			return mockapi.Serve(cmd.Context(), fmt.Sprintf(":%d", port), router, e.log)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8000, "listen port (default from mock.port)")
	cmd.Flags().StringVar(&mode, "mode", "release", "gin mode: debug, release or test")
	return cmd
}
