package local

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/timmy/querydesk/internal/source"
)

// Adapter implements the Source interface for files and directories on
// disk. Files named explicitly are always included so the service can
// report unsupported types; directories contribute only supported ones.
type Adapter struct {
	paths  []string
	docs   []source.Document
	loaded bool
}

// NewAdapter creates a local adapter over paths.
// Parameters:
//   - paths: files and directories to enumerate; nothing is read until the
//     first FetchBatch or Len.
// Returns:
//   - *Adapter: adapter instance.
func NewAdapter(paths ...string) *Adapter {
	return &Adapter{paths: paths}
}

func (a *Adapter) ID() string {
	return "local:" + strings.Join(a.paths, ",")
}

// FetchBatch fetches a batch of documents.
// Parameters:
//   - ctx: context for cancellation.
//   - cursor: index of the first document, or empty for the first batch.
//   - limit: maximum number of documents; <= 0 returns the rest.
// Returns:
//   - []source.Document: batch of documents.
//   - string: cursor for the next batch or empty if done.
//   - error: non-nil if the cursor is invalid or listing fails.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.Document, string, error) {
	if !a.loaded {
		if err := a.load(ctx); err != nil {
			return nil, "", fmt.Errorf("failed to list documents: %w", err)
		}
		a.loaded = true
	}

	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil || start < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if start >= len(a.docs) {
		return []source.Document{}, "", nil
	}

	end := len(a.docs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	next := ""
	if end < len(a.docs) {
		next = strconv.Itoa(end)
	}
	return a.docs[start:end], next, nil
}

// Len is the total number of documents, listing them if needed.
// Parameters:
//   - ctx: context for cancellation.
// Returns:
//   - int: number of documents across every path.
//   - error: non-nil if listing fails.
func (a *Adapter) Len(ctx context.Context) (int, error) {
	if !a.loaded {
		if err := a.load(ctx); err != nil {
			return 0, err
		}
		a.loaded = true
	}
	return len(a.docs), nil
}

func (a *Adapter) load(ctx context.Context) error {
	seen := make(map[string]bool)
	a.docs = []source.Document{}

	add := func(path string, info fs.FileInfo) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		a.docs = append(a.docs, source.Document{
			Name:   info.Name(),
			Path:   path,
			Size:   info.Size(),
			Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		})
	}

	for _, root := range a.paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			add(root, info)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if Supported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return err
		}
		sort.Strings(found)
		for _, path := range found {
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			add(path, info)
		}
	}
	return nil
}

// Supported reports whether path has an indexable extension.
func Supported(path string) bool {
	return slices.Contains(source.SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}
