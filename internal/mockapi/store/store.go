// Package store is the in-memory state behind the mock query service:
// the connected schema, ingestion jobs, indexed document snippets, query
// history and a result cache.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/querydesk/internal/domain"
)

const (
	historyTail    = 50
	snippetLength  = 300
	maxResultLimit = 200
)

var (
	ErrConnectionRequired = errors.New("connection_string required")
	ErrNoFiles            = errors.New("No files provided")
	ErrNoDataSource       = errors.New("no data source connected")
	ErrEmptyQuery         = errors.New("query must not be empty")
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".docx": true,
	".csv":  true,
}

var supportedSchemes = map[string]bool{
	"postgres":   true,
	"postgresql": true,
	"mysql":      true,
	"sqlite":     true,
}

// File is one uploaded document.
type File struct {
	Name    string
	Content []byte
}

type Options struct {
	// DocsPerPoll is how many documents a status poll indexes. Default 1.
	DocsPerPoll int
	// MaxFileBytes rejects larger uploads. Default 10 MiB.
	MaxFileBytes int64
}

type job struct {
	pending []File
	status  domain.IngestStatus
}

type document struct {
	filename string
	kind     string
	snippet  string
	text     string
}

// Store is safe for concurrent use.
type Store struct {
	docsPerPoll  int
	maxFileBytes int64

	mu      sync.Mutex
	schema  *domain.Schema
	jobs    map[string]*job
	docs    []document
	history []domain.QueryHistoryEntry
	cache   map[string]*domain.ResultPayload
	version int
}

func New(opts Options) *Store {
	if opts.DocsPerPoll <= 0 {
		opts.DocsPerPoll = 1
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 10 << 20
	}
	return &Store{
		docsPerPoll:  opts.DocsPerPoll,
		maxFileBytes: opts.MaxFileBytes,
		jobs:         make(map[string]*job),
		cache:        make(map[string]*domain.ResultPayload),
	}
}

// MaxFileBytes is the per-file upload limit.
func (s *Store) MaxFileBytes() int64 {
	return s.maxFileBytes
}

// ConnectDatabase "discovers" the sample HR schema for any supported
// connection string and makes it current.
func (s *Store) ConnectDatabase(conn string) (*domain.Schema, error) {
	conn = strings.TrimSpace(conn)
	if conn == "" {
		return nil, ErrConnectionRequired
	}
	u, err := url.Parse(conn)
	if err != nil || !supportedSchemes[strings.ToLower(u.Scheme)] {
		return nil, fmt.Errorf("unsupported connection string %q", conn)
	}

	schema := sampleSchema()
	s.mu.Lock()
	s.schema = schema
	s.version++
	s.mu.Unlock()
	return schema, nil
}

// Schema returns the current schema, nil before any connection.
func (s *Store) Schema() *domain.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// CreateJob registers an ingestion job for the acceptable files. Files with
// an unsupported extension or above the size limit are recorded as job
// errors; a batch with nothing acceptable is rejected.
func (s *Store) CreateJob(files []File) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}

	j := &job{status: domain.IngestStatus{Errors: []string{}, Files: []domain.FileStatus{}}}
	for _, f := range files {
		name := sanitizeFilename(f.Name)
		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case !allowedExtensions[ext]:
			j.status.Errors = append(j.status.Errors, fmt.Sprintf("%s: unsupported type %s", name, ext))
		case int64(len(f.Content)) > s.maxFileBytes:
			j.status.Errors = append(j.status.Errors, fmt.Sprintf("%s: exceeds %dMB", name, s.maxFileBytes>>20))
		default:
			j.pending = append(j.pending, File{Name: name, Content: f.Content})
		}
	}
	if len(j.pending) == 0 {
		return "", fmt.Errorf("no acceptable files: %s", strings.Join(j.status.Errors, "; "))
	}
	j.status.Total = len(j.pending)

	id := uuid.NewString()
	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()
	return id, nil
}

// PollStatus indexes the next documents of the job and reports progress.
func (s *Store) PollStatus(jobID string) (domain.IngestStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return domain.IngestStatus{}, false
	}

	for i := 0; i < s.docsPerPoll && len(j.pending) > 0; i++ {
		f := j.pending[0]
		j.pending = j.pending[1:]
		s.docs = append(s.docs, newDocument(f))
		j.status.Done++
		j.status.Files = append(j.status.Files, domain.FileStatus{File: f.Name, Status: "processed"})
		if len(j.pending) == 0 {
			s.version++
		}
	}

	out := j.status
	out.Errors = append([]string{}, j.status.Errors...)
	out.Files = append([]domain.FileStatus{}, j.status.Files...)
	return out, true
}

// History returns the most recent queries, oldest first.
func (s *Store) History() []domain.QueryHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if len(s.history) > historyTail {
		start = len(s.history) - historyTail
	}
	return append([]domain.QueryHistoryEntry{}, s.history[start:]...)
}

// RecordQuery appends a history entry.
func (s *Store) RecordQuery(query string, metrics domain.QueryMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.history = append(s.history, domain.QueryHistoryEntry{Query: query, Metrics: metrics, Timestamp: &now})
}

func newDocument(f File) document {
	text := strings.TrimSpace(string(f.Content))
	snippet := text
	if len(snippet) > snippetLength {
		snippet = snippet[:snippetLength]
	}
	return document{
		filename: f.Name,
		kind:     strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), "."),
		snippet:  snippet,
		text:     strings.ToLower(text),
	}
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if len(name) > 180 {
		name = name[:180]
	}
	return name
}

func cacheKey(version int, query string, limit, offset int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%d|%d", version, query, limit, offset)))
	return "q:" + hex.EncodeToString(sum[:])
}
