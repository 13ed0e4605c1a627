package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/timmy/querydesk/internal/apiclient"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

// DocumentSubmitter sends a document batch for ingestion.
type DocumentSubmitter interface {
	UploadDocuments(ctx context.Context, files []apiclient.Upload) (string, error)
}

// JobTracker follows an ingestion job until it finishes.
type JobTracker interface {
	Start(jobID string) error
	Snapshot(jobID string) (domain.IngestJob, bool)
}

// UploaderState is what the uploader shows to the user.
type UploaderState struct {
	Files     int
	JobID     string
	Uploading bool
	Completed bool
	Error     string
	Progress  int
	Job       *domain.IngestJob
}

// Uploader submits documents and hands the job to the tracker.
type Uploader struct {
	client  DocumentSubmitter
	tracker JobTracker
	bus     Publisher
	logger  *logger.Logger

	mu         sync.RWMutex
	files      int
	jobID      string
	err        string
	submitting bool
}

func NewUploader(client DocumentSubmitter, tracker JobTracker, bus Publisher, log *logger.Logger) *Uploader {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Uploader{
		client:  client,
		tracker: tracker,
		bus:     bus,
		logger:  log.WithComponent("uploader"),
	}
}

// Upload submits files and starts polling the returned job. An empty
// batch does nothing and returns "".
func (u *Uploader) Upload(ctx context.Context, files []apiclient.Upload) (string, error) {
	if len(files) == 0 {
		return "", nil
	}

	u.mu.Lock()
	u.files = len(files)
	u.jobID = ""
	u.err = ""
	u.submitting = true
	u.mu.Unlock()

	jobID, err := u.client.UploadDocuments(ctx, files)
	u.mu.Lock()
	u.submitting = false
	u.mu.Unlock()
	if err == nil {
		err = u.tracker.Start(jobID)
		if err != nil {
			err = fmt.Errorf("track job %s: %w", jobID, err)
		}
	}
	if err != nil {
		detail := apiclient.Detail(err)
		u.mu.Lock()
		u.err = detail
		u.mu.Unlock()

		u.logger.WithError(err).Warn("document upload failed")
		u.bus.Publish(domain.EventNotify, domain.Notice{
			Title:    "Upload",
			Body:     detail,
			Severity: domain.SeverityDanger,
		})
		return "", err
	}

	u.mu.Lock()
	u.jobID = jobID
	u.mu.Unlock()

	u.logger.WithFields(logger.Fields{
		logger.FieldJobID: jobID,
		logger.FieldCount: len(files),
	}).Info("ingestion started")
	u.bus.Publish(domain.EventNotify, domain.Notice{
		Title:    "Upload",
		Body:     "Ingestion started",
		Severity: domain.SeveritySuccess,
	})
	return jobID, nil
}

// State combines the last upload with the tracked job's progress.
func (u *Uploader) State() UploaderState {
	u.mu.RLock()
	s := UploaderState{Files: u.files, JobID: u.jobID, Error: u.err, Uploading: u.submitting}
	u.mu.RUnlock()

	if s.JobID == "" {
		return s
	}
	job, ok := u.tracker.Snapshot(s.JobID)
	if !ok {
		return s
	}
	s.Job = &job
	s.Progress = job.Progress()
	switch job.Status {
	case domain.JobStatusDone:
		s.Completed = true
	case domain.JobStatusFailed:
		s.Error = "Status check failed"
	case domain.JobStatusCancelled:
	default:
		s.Uploading = true
	}
	return s
}
