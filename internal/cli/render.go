package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/results"
)

func renderSchema(w io.Writer, st Styles, schema *domain.Schema) {
	fmt.Fprintln(w, st.Title.Render(fmt.Sprintf("Schema (%d tables, %d columns)", len(schema.Tables), schema.ColumnCount())))
	relationships := schema.RelationshipsFrom()
	for _, t := range schema.Tables {
		fmt.Fprintf(w, "\n%s\n", st.Header.Render(t.Name))
		for _, c := range t.Columns {
			fmt.Fprintf(w, "  %s %s\n", c.Name, st.Faint.Render(c.Type))
		}
		for _, r := range relationships[t.Name] {
			fmt.Fprintf(w, "  %s %s.%s -> %s.%s\n", st.Info.Render("fk"),
				r.FromTable, strings.Join(r.FromColumns, ","), r.ToTable, strings.Join(r.ToColumns, ","))
		}
	}
}

func renderRows(w io.Writer, st Styles, rows []domain.Row) {
	if len(rows) == 0 {
		return
	}
	headers := rows[0].Keys()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Header
			}
			return st.Text.Padding(0, 1)
		})
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i, h := range headers {
			v, _ := row.Get(h)
			cells[i] = results.FormatValue(v)
		}
		t.Row(cells...)
	}
	fmt.Fprintln(w, t.Render())
}

func renderDocuments(w io.Writer, st Styles, docs []domain.Document) {
	if len(docs) == 0 {
		return
	}
	fmt.Fprintln(w, st.Title.Render(fmt.Sprintf("Documents (%d)", len(docs))))
	for _, d := range docs {
		fmt.Fprintf(w, "\n%s %s\n", st.Header.Render(d.Filename()), st.Faint.Render(fmt.Sprintf("score %.3f", d.Score)))
		fmt.Fprintln(w, st.Text.Render(d.Snippet()))
	}
}

// renderMetrics prints performance metrics in key order.
func renderMetrics(w io.Writer, st Styles, metrics map[string]any) {
	if len(metrics) == 0 {
		return
	}
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, results.FormatValue(metrics[k])))
	}
	fmt.Fprintln(w, st.Faint.Render(strings.Join(parts, "  ")))
}
