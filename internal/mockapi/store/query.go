package store

import (
	"sort"
	"strings"

	"github.com/timmy/querydesk/internal/domain"
)

const (
	QueryTypeSQL       = "sql"
	QueryTypeDocuments = "documents"
	QueryTypeHybrid    = "hybrid"

	documentTopK = 3
)

var documentKeywords = []string{"resume", "cv", "document", "review", "pdf"}

var sqlKeywords = []string{
	"count", "list", "average", "avg", "sum", "top", "hired", "joined", "trend", "month",
	"salary", "department", "dept", "division", "divisions", "manager", "reports to",
	"before", "after", "location", "mumbai", "bangalore", "chennai", "delhi", "hyderabad",
	"pay", "compensation", "how many", "show", "employees", "staff",
}

// Classify maps free text to sql, documents or hybrid.
func Classify(q string) string {
	ql := strings.ToLower(q)
	isDoc := containsAny(ql, documentKeywords)
	isSQL := containsAny(ql, sqlKeywords)
	switch {
	case isDoc && isSQL:
		return QueryTypeHybrid
	case isDoc:
		return QueryTypeDocuments
	default:
		return QueryTypeSQL
	}
}

// Query answers a natural-language question. Identical questions against
// unchanged data are served from the cache with cache_hit set.
func (s *Store) Query(q string, limit, offset int) (*domain.ResultPayload, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	limit = max(1, min(limit, maxResultLimit))
	offset = max(0, offset)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cacheKey(s.version, q, limit, offset)
	if cached, ok := s.cache[key]; ok {
		return withCacheHit(cached, true), nil
	}

	qtype := Classify(q)
	if qtype != QueryTypeDocuments && s.schema == nil {
		return nil, ErrNoDataSource
	}

	out := &domain.ResultPayload{QueryType: qtype}
	out.Normalize()
	if qtype == QueryTypeSQL || qtype == QueryTypeHybrid {
		out.Results.Table = selectRows(q, limit, offset)
	}
	if qtype == QueryTypeDocuments || qtype == QueryTypeHybrid {
		out.Results.Documents = s.searchDocuments(q)
	}
	s.cache[key] = out
	return withCacheHit(out, false), nil
}

func withCacheHit(p *domain.ResultPayload, hit bool) *domain.ResultPayload {
	cp := *p
	cp.PerformanceMetrics = map[string]any{"cache_hit": hit}
	return &cp
}

// selectRows filters employees by the departments and cities mentioned
// in q. "count" and "how many" questions collapse to a single count row.
func selectRows(q string, limit, offset int) []domain.Row {
	ql := strings.ToLower(q)

	var cities []string
	for _, city := range []string{"mumbai", "bangalore", "chennai", "delhi", "hyderabad"} {
		if strings.Contains(ql, city) {
			cities = append(cities, city)
		}
	}
	depts := make(map[int]bool)
	for id, name := range departments {
		if strings.Contains(ql, strings.ToLower(name)) {
			depts[id] = true
		}
	}

	matched := employees
	if len(cities) > 0 || len(depts) > 0 {
		matched = nil
		for _, e := range employees {
			if depts[e.deptID] || containsAny(strings.ToLower(e.location), cities) {
				matched = append(matched, e)
			}
		}
	}

	if strings.Contains(ql, "how many") || strings.Contains(ql, "count") {
		return []domain.Row{domain.NewRow("count", len(matched))}
	}

	if offset >= len(matched) {
		return []domain.Row{}
	}
	end := min(offset+limit, len(matched))
	rows := make([]domain.Row, 0, end-offset)
	for _, e := range matched[offset:end] {
		rows = append(rows, e.row())
	}
	return rows
}

// searchDocuments scores indexed documents by the share of query words
// they contain. Caller holds s.mu.
func (s *Store) searchDocuments(q string) []domain.Document {
	words := strings.Fields(strings.ToLower(q))
	if len(words) == 0 {
		return []domain.Document{}
	}

	type hit struct {
		doc   document
		score float64
	}
	var hits []hit
	for _, d := range s.docs {
		found := 0
		for _, w := range words {
			if strings.Contains(d.text, w) {
				found++
			}
		}
		if found > 0 {
			hits = append(hits, hit{doc: d, score: float64(found) / float64(len(words))})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > documentTopK {
		hits = hits[:documentTopK]
	}

	out := make([]domain.Document, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.Document{
			Score: h.score,
			Meta: map[string]any{
				"filename": h.doc.filename,
				"type":     h.doc.kind,
				"snippet":  h.doc.snippet,
			},
		})
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
