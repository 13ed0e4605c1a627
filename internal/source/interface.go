// Package source enumerates documents to be uploaded for indexing.
package source

import "context"

// SupportedExtensions are the document types the query service indexes.
var SupportedExtensions = []string{".pdf", ".txt", ".docx", ".csv"}

// Document is one local file queued for upload.
type Document struct {
	Name   string // base name sent to the service
	Path   string
	Size   int64
	Format string // extension without the dot
}

// Source defines the interface for document sources.
type Source interface {
	// ID returns a stable identifier for logging.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	ID() string

	// FetchBatch returns up to limit documents starting at cursor, and the
	// cursor of the next batch or "" when exhausted.
	// Parameters:
	//   - ctx: context for cancellation.
	//   - cursor: pagination cursor or empty for the first batch.
	//   - limit: maximum number of documents; <= 0 returns the rest.
	// Returns:
	//   - docs: batch of documents.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if enumerating fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (docs []Document, nextCursor string, err error)
}
