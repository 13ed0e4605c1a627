package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show recent queries and cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refreshed := e.session.History.RefreshedAt()
			if refreshed.IsZero() {
				return errors.New("could not load query history")
			}

			stats := e.session.History.Stats()
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, e.styles.Title.Render("Query history"),
				e.styles.Faint.Render("as of "+refreshed.Format(time.TimeOnly)))
			fmt.Fprintf(w, "Total queries: %d\n", stats.Total)
			fmt.Fprintf(w, "Cache hit rate: %d%%\n", stats.CacheHitRate)
			fmt.Fprintf(w, "Average latency: %d ms\n", stats.AvgLatencyMs)

			if len(stats.Recent) == 0 {
				fmt.Fprintln(w, e.styles.Faint.Render("No queries yet."))
				return nil
			}
			fmt.Fprintln(w)
			for _, entry := range stats.Recent {
				mark := e.styles.Faint.Render("miss")
				if entry.Metrics.CacheHit {
					mark = e.styles.Success.Render("hit ")
				}
				fmt.Fprintf(w, "%s %7.1f ms  %s\n", mark, entry.Metrics.ResponseTimeMs, entry.Query)
			}
			return nil
		},
	}
}
