package domain

import (
	"math"
	"time"
)

// JobStatus represents the client-side state of an ingestion job.
// Values include JobStatusPending, JobStatusRunning, JobStatusDone,
// JobStatusFailed and JobStatusCancelled.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions can happen.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusDone, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// IngestJob is the poller's view of a server-side ingestion job.
type IngestJob struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	DoneCount   int        `json:"done_count"`
	TotalCount  int        `json:"total_count"`
	LastError   string     `json:"last_error,omitempty"`
	Errors      []string   `json:"errors,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Progress returns the display percentage for the job.
func (j IngestJob) Progress() int {
	return ProgressPercent(j.DoneCount, j.TotalCount)
}

// ProgressPercent returns round(100*done/total) clamped to [0,100],
// and 0 when total is not positive.
func ProgressPercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(done) / float64(total)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// IngestStatus is the body returned by the ingestion status endpoint.
// Error is set by the service when the job id is unknown.
type IngestStatus struct {
	Done   int          `json:"done"`
	Total  int          `json:"total"`
	Errors []string     `json:"errors,omitempty"`
	Files  []FileStatus `json:"files,omitempty"`
	Error  string       `json:"error,omitempty"`
	JobID  string       `json:"job_id,omitempty"`
}

// FileStatus is a per-file entry of an ingestion status report.
type FileStatus struct {
	File   string `json:"file"`
	Status string `json:"status"`
}
