package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/timmy/querydesk/internal/dashboard"
)

func newMetricsCommand(e *env) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show service health, schema size and query statistics",
		Long: `Show a snapshot of the metrics dashboard. With --watch the dashboard keeps
refreshing every dashboard.refresh_interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			dash := e.session.Dashboard

			if !watch {
				if err := dash.Refresh(ctx); err != nil {
					e.log.WithError(err).Warn("Dashboard refresh incomplete")
				}
				renderSnapshot(w, e.styles, dash.Snapshot())
				return nil
			}

			dash.Start(ctx)
			defer dash.Stop()

			ticker := time.NewTicker(e.cfg.Dashboard.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					renderSnapshot(w, e.styles, dash.Snapshot())
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing until interrupted")
	return cmd
}

func renderSnapshot(w io.Writer, st Styles, s dashboard.Snapshot) {
	health := st.Danger.Render(s.Health)
	if s.Health == "ok" {
		health = st.Success.Render(s.Health)
	}

	fmt.Fprintln(w, st.Title.Render("Metrics"))
	fmt.Fprintf(w, "Health:          %s\n", health)
	fmt.Fprintf(w, "Tables:          %d\n", s.Tables)
	fmt.Fprintf(w, "Columns:         %d\n", s.Columns)
	fmt.Fprintf(w, "Relationships:   %d\n", s.Relationships)
	fmt.Fprintf(w, "Queries:         %d\n", s.History.Total)
	fmt.Fprintf(w, "Cache hit rate:  %d%%\n", s.History.CacheHitRate)
	fmt.Fprintf(w, "Avg latency:     %d ms\n", s.History.AvgLatencyMs)
	if !s.RefreshedAt.IsZero() {
		fmt.Fprintln(w, st.Faint.Render("refreshed "+s.RefreshedAt.Format(time.TimeOnly)))
	}
}
