// Package results pages through and exports the rows of the latest query.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/eventbus"
	"github.com/timmy/querydesk/internal/logger"
)

const DefaultPageSize = 10

// Presenter holds the latest result payload and the current page. Paging
// works on the held rows and never refetches.
type Presenter struct {
	pageSize int
	logger   *logger.Logger

	mu      sync.RWMutex
	payload *domain.ResultPayload
	page    int
}

func New(pageSize int, log *logger.Logger) *Presenter {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Presenter{
		pageSize: pageSize,
		logger:   log.WithComponent("results"),
		page:     1,
	}
}

// Subscribe makes the presenter follow query-results events.
func (p *Presenter) Subscribe(bus *eventbus.Bus) eventbus.Token {
	return eventbus.On(bus, domain.EventQueryResults, p.Show)
}

// Show replaces the held payload and resets to page 1.
func (p *Presenter) Show(payload *domain.ResultPayload) {
	p.mu.Lock()
	p.payload = payload
	p.page = 1
	p.mu.Unlock()

	p.logger.WithFields(logger.Fields{
		logger.FieldCount: len(p.Rows()),
		"documents":       len(p.Documents()),
	}).Debug("results received")
}

// Rows returns every table row of the held payload.
func (p *Presenter) Rows() []domain.Row {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.payload == nil {
		return nil
	}
	return p.payload.Results.Table
}

// Documents returns the semantic search hits of the held payload.
func (p *Presenter) Documents() []domain.Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.payload == nil {
		return nil
	}
	return p.payload.Results.Documents
}

// PageCount is the number of pages, at least 1.
func (p *Presenter) PageCount() int {
	return pageCount(len(p.Rows()), p.pageSize)
}

func pageCount(n, size int) int {
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Page returns the current page number.
func (p *Presenter) Page() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.page
}

// SetPage moves to page n, clamped to [1, PageCount].
func (p *Presenter) SetPage(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var rows int
	if p.payload != nil {
		rows = len(p.payload.Results.Table)
	}
	last := pageCount(rows, p.pageSize)
	switch {
	case n < 1:
		n = 1
	case n > last:
		n = last
	}
	p.page = n
	return n
}

// PageRows returns the rows of the current page.
func (p *Presenter) PageRows() []domain.Row {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.payload == nil {
		return nil
	}
	return Slice(p.payload.Results.Table, p.page, p.pageSize)
}

// Slice returns rows[(page-1)*size : page*size] clamped to bounds.
func Slice(rows []domain.Row, page, size int) []domain.Row {
	if page < 1 || size <= 0 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return nil
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// RangeLabel describes the visible slice, e.g. "Showing 11-20 of 42 results".
func (p *Presenter) RangeLabel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := 0
	if p.payload != nil {
		total = len(p.payload.Results.Table)
	}
	if total == 0 {
		return "Showing 0 of 0 results"
	}
	first := (p.page-1)*p.pageSize + 1
	last := first + p.pageSize - 1
	if last > total {
		last = total
	}
	return fmt.Sprintf("Showing %d-%d of %d results", first, last, total)
}

// ExportJSON returns every row as a JSON array indented by two spaces.
func (p *Presenter) ExportJSON() ([]byte, error) {
	return ExportJSON(p.Rows())
}

// ExportCSV returns every row as CSV.
func (p *Presenter) ExportCSV() string {
	return ExportCSV(p.Rows())
}

func ExportJSON(rows []domain.Row) ([]byte, error) {
	if rows == nil {
		rows = []domain.Row{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
