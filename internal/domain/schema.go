package domain

// Schema is the data source description returned by the query service.
type Schema struct {
	Tables        []Table        `json:"tables"`
	Relationships []Relationship `json:"relationships"`
	AliasVocab    []string       `json:"alias_vocab"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Relationship struct {
	FromTable   string   `json:"from_table"`
	FromColumns []string `json:"from_columns"`
	ToTable     string   `json:"to_table"`
	ToColumns   []string `json:"to_columns"`
}

// Tokens lists every table name followed by its column names, in
// schema order. Duplicates are kept; callers dedupe.
func (s *Schema) Tokens() []string {
	if s == nil {
		return nil
	}
	tokens := make([]string, 0, len(s.Tables)*4)
	for _, t := range s.Tables {
		tokens = append(tokens, t.Name)
		for _, c := range t.Columns {
			tokens = append(tokens, c.Name)
		}
	}
	return tokens
}

// ColumnCount is the total number of columns across all tables.
func (s *Schema) ColumnCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, t := range s.Tables {
		n += len(t.Columns)
	}
	return n
}

// RelationshipsFrom groups relationships by their source table.
func (s *Schema) RelationshipsFrom() map[string][]Relationship {
	out := make(map[string][]Relationship)
	if s == nil {
		return out
	}
	for _, r := range s.Relationships {
		out[r.FromTable] = append(out[r.FromTable], r)
	}
	return out
}

// Normalize replaces nil slices with empty ones so sparse payloads
// behave like well-formed ones.
func (s *Schema) Normalize() {
	if s.Tables == nil {
		s.Tables = []Table{}
	}
	for i := range s.Tables {
		if s.Tables[i].Columns == nil {
			s.Tables[i].Columns = []Column{}
		}
	}
	if s.Relationships == nil {
		s.Relationships = []Relationship{}
	}
	if s.AliasVocab == nil {
		s.AliasVocab = []string{}
	}
}
