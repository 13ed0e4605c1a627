package results

import (
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/eventbus"
	"github.com/timmy/querydesk/internal/logger"
)

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Output = io.Discard
	return logger.New(cfg)
}

func numberedRows(n int) []domain.Row {
	rows := make([]domain.Row, n)
	for i := range rows {
		rows[i] = domain.NewRow("id", i+1, "name", fmt.Sprintf("row-%d", i+1))
	}
	return rows
}

func payloadWith(rows []domain.Row) *domain.ResultPayload {
	p := &domain.ResultPayload{Results: domain.Results{Table: rows}}
	p.Normalize()
	return p
}

func TestSlice_Bounds(t *testing.T) {
	rows := numberedRows(23)

	assert.Len(t, Slice(rows, 1, 10), 10)
	assert.Len(t, Slice(rows, 3, 10), 3)
	assert.Empty(t, Slice(rows, 4, 10))
	assert.Empty(t, Slice(rows, 0, 10))

	v, _ := Slice(rows, 3, 10)[0].Get("id")
	assert.Equal(t, 21, v)
}

func TestPresenter_Pagination(t *testing.T) {
	p := New(10, testLogger())
	assert.Equal(t, 1, p.PageCount())
	assert.Equal(t, "Showing 0 of 0 results", p.RangeLabel())
	assert.Nil(t, p.PageRows())

	p.Show(payloadWith(numberedRows(23)))
	assert.Equal(t, 3, p.PageCount())
	assert.Equal(t, "Showing 1-10 of 23 results", p.RangeLabel())

	assert.Equal(t, 2, p.SetPage(p.Page()+1))
	assert.Equal(t, 3, p.SetPage(p.Page()+1))
	assert.Equal(t, 3, p.SetPage(p.Page()+1))
	assert.Len(t, p.PageRows(), 3)
	assert.Equal(t, "Showing 21-23 of 23 results", p.RangeLabel())

	assert.Equal(t, 1, p.SetPage(-4))
	assert.Equal(t, 1, p.SetPage(p.Page()-1))
	assert.Equal(t, 3, p.SetPage(99))
}

func TestPresenter_NewResultsResetPage(t *testing.T) {
	p := New(10, testLogger())
	bus := eventbus.New(testLogger())
	p.Subscribe(bus)

	bus.Publish(domain.EventQueryResults, payloadWith(numberedRows(30)))
	p.SetPage(3)

	bus.Publish(domain.EventQueryResults, payloadWith(numberedRows(12)))
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, 2, p.PageCount())
	assert.Len(t, p.Rows(), 12)
}

func TestExportCSV_Quoting(t *testing.T) {
	var row domain.Row
	require.NoError(t, json.Unmarshal([]byte(`{"name":"A,B","note":"He said \"hi\"\n"}`), &row))

	got := ExportCSV([]domain.Row{row})
	assert.Equal(t, "name,note\n\"A,B\",\"He said \"\"hi\"\"\n\"", got)
}

func TestExportCSV_HeaderOrderAndNulls(t *testing.T) {
	var rows []domain.Row
	require.NoError(t, json.Unmarshal([]byte(`[
		{"zeta":1,"alpha":null,"flag":true},
		{"zeta":2.50,"alpha":"x","flag":false,"extra":"ignored"}
	]`), &rows))

	got := ExportCSV(rows)
	assert.Equal(t, "zeta,alpha,flag\n1,,true\n2.50,x,false", got)
}

func TestExportCSV_QuotesHeader(t *testing.T) {
	row := domain.NewRow("a,b", 1, `say "x"`, "y")
	assert.Equal(t, "\"a,b\",\"say \"\"x\"\"\"\n1,y", ExportCSV([]domain.Row{row}))
}

func TestExportCSV_Empty(t *testing.T) {
	assert.Equal(t, "", ExportCSV(nil))
	assert.Equal(t, "", New(10, testLogger()).ExportCSV())
}

func TestExportCSV_NestedValues(t *testing.T) {
	var rows []domain.Row
	require.NoError(t, json.Unmarshal([]byte(`[{"tags":["a","b"]}]`), &rows))
	assert.Equal(t, "tags\n\"[\"\"a\"\",\"\"b\"\"]\"", ExportCSV(rows))
}

func TestExportJSON_Indented(t *testing.T) {
	var rows []domain.Row
	require.NoError(t, json.Unmarshal([]byte(`[{"b":1,"a":"<x>"}]`), &rows))

	p := New(10, testLogger())
	p.Show(payloadWith(rows))
	out, err := p.ExportJSON()
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"b\": 1,\n    \"a\": \"<x>\"\n  }\n]", string(out))

	empty, err := ExportJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
