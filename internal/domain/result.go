package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResultPayload is the body of a successful query. It is published
// verbatim on the bus and never mutated after decoding.
type ResultPayload struct {
	QueryType          string         `json:"query_type,omitempty"`
	Results            Results        `json:"results"`
	PerformanceMetrics map[string]any `json:"performance_metrics"`
}

type Results struct {
	Table     []Row      `json:"table"`
	Documents []Document `json:"documents"`
}

// Document is a semantic search hit.
type Document struct {
	Score float64        `json:"score"`
	Meta  map[string]any `json:"meta"`
}

// Filename returns meta.filename or "Document".
func (d Document) Filename() string {
	if name, ok := d.Meta["filename"].(string); ok && name != "" {
		return name
	}
	return "Document"
}

// Snippet returns meta.snippet, or the indented meta object.
func (d Document) Snippet() string {
	if s, ok := d.Meta["snippet"].(string); ok && s != "" {
		return s
	}
	b, err := json.MarshalIndent(d.Meta, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// Normalize defaults missing collections to empty ones and drops rows
// that decoded without any columns.
func (p *ResultPayload) Normalize() {
	rows := make([]Row, 0, len(p.Results.Table))
	for _, r := range p.Results.Table {
		if r.Len() > 0 {
			rows = append(rows, r)
		}
	}
	p.Results.Table = rows
	if p.Results.Documents == nil {
		p.Results.Documents = []Document{}
	}
	if p.PerformanceMetrics == nil {
		p.PerformanceMetrics = map[string]any{}
	}
}

// Row is one table record. It keeps the key order of the JSON object it
// was decoded from so exports can reproduce the server's column order.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow builds a row from alternating key, value pairs.
func NewRow(pairs ...any) Row {
	r := Row{values: make(map[string]any, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := fmt.Sprint(pairs[i])
		r.Set(key, pairs[i+1])
	}
	return r
}

// Keys returns the column names in source order.
func (r Row) Keys() []string {
	return r.keys
}

// Get returns the value for key and whether it was present.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set adds or replaces a column, appending new keys at the end.
func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Len is the number of columns.
func (r Row) Len() int {
	return len(r.keys)
}

// UnmarshalJSON decodes an object while recording key order. Numbers are
// kept as json.Number so they export with their original text. Null and
// non-object values decode as an empty row.
func (r *Row) UnmarshalJSON(data []byte) error {
	*r = Row{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return err
	}

	r.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row: expected string key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("row: decode %q: %w", key, err)
		}
		r.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the row as an object in key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, r.values[key]); err != nil {
			return nil, fmt.Errorf("row: encode %q: %w", key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue writes v without HTML escaping so exported text matches
// what the service sent.
func encodeValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
