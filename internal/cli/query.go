package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	exportJSON = "json"
	exportCSV  = "csv"
)

func newQueryCommand(e *env) *cobra.Command {
	var (
		page   int
		limit  int
		offset int
		export string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "query <question>...",
		Short: "Ask a question in plain language",
		Long: `Run a natural-language query and show one page of results, or export
every returned row as JSON or CSV.

Examples:
  querydesk query how many employees joined after 2020
  querydesk query "list staff in Mumbai" --page 2
  querydesk query "list staff" --export csv --out staff.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch export {
			case "", exportJSON, exportCSV:
			default:
				return fmt.Errorf("invalid export format %q: must be json or csv", export)
			}

			text := strings.Join(args, " ")
			if !cmd.Flags().Changed("limit") {
				limit = e.cfg.Query.Limit
			}
			if !cmd.Flags().Changed("offset") {
				offset = e.cfg.Query.Offset
			}

			payload, err := e.session.Query.Submit(cmd.Context(), text, limit, offset)
			if err != nil {
				if detail := e.session.Query.LastError(); detail != "" {
					return fmt.Errorf("query failed: %s", detail)
				}
				return fmt.Errorf("query: %w", err)
			}
			if payload == nil {
				return nil
			}

			if export != "" {
				return writeExport(cmd.OutOrStdout(), e, export, out)
			}

			w := cmd.OutOrStdout()
			presenter := e.session.Results
			presenter.SetPage(page)
			fmt.Fprintln(w, e.styles.Title.Render(e.session.Query.LastQuery()))
			renderRows(w, e.styles, presenter.PageRows())
			if len(presenter.Rows()) > 0 || len(presenter.Documents()) == 0 {
				fmt.Fprintf(w, "%s  %s\n", presenter.RangeLabel(),
					e.styles.Faint.Render(fmt.Sprintf("page %d of %d", presenter.Page(), presenter.PageCount())))
			}
			renderDocuments(w, e.styles, presenter.Documents())
			renderMetrics(w, e.styles, e.session.Query.LastMetrics())
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "result page to show")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to fetch (default from query.limit)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip (default from query.offset)")
	cmd.Flags().StringVar(&export, "export", "", "export all rows as json or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "export destination (default stdout)")
	return cmd
}

func writeExport(stdout io.Writer, e *env, format, path string) error {
	var data []byte
	switch format {
	case exportJSON:
		b, err := e.session.Results.ExportJSON()
		if err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		data = b
	case exportCSV:
		data = []byte(e.session.Results.ExportCSV())
	}

	if path == "" {
		_, err := fmt.Fprintln(stdout, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "Exported %d rows to %s\n", len(e.session.Results.Rows()), path)
	return nil
}
