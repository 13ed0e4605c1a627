package results

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/timmy/querydesk/internal/domain"
)

// ExportCSV renders rows with a header taken from the first row's key
// order. Header and data fields holding a comma, double quote or newline are quoted with
// inner quotes doubled, nulls are empty, and lines are joined by "\n"
// without a trailing newline. No rows export as "".
func ExportCSV(rows []domain.Row) string {
	if len(rows) == 0 {
		return ""
	}
	headers := rows[0].Keys()

	lines := make([]string, 0, len(rows)+1)
	fields := make([]string, len(headers))
	for i, h := range headers {
		fields[i] = csvField(h)
	}
	lines = append(lines, strings.Join(fields, ","))
	for _, row := range rows {
		for i, h := range headers {
			v, _ := row.Get(h)
			fields[i] = csvField(v)
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

func csvField(v any) string {
	s := FormatValue(v)
	if strings.ContainsAny(s, "\",\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// FormatValue renders a cell as text: nulls are empty, numbers keep their
// decoded text and nested values are JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool, int, int64, float64:
		return fmt.Sprint(x)
	case map[string]any, []any, domain.Row:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
