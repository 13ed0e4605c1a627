package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/timmy/querydesk/internal/apiclient"
	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/source"
	"github.com/timmy/querydesk/internal/source/local"
)

func newUploadCommand(e *env) *cobra.Command {
	var (
		wait      bool
		timeout   time.Duration
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "upload <file-or-dir>...",
		Short: "Upload documents for indexing",
		Long: `Upload documents and follow each ingestion job until every file is indexed.
Directories are searched for .pdf, .txt, .docx and .csv files.

Examples:
  querydesk upload resumes/
  querydesk upload --batch-size 20 archive/
  querydesk upload --wait=false notes.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src := local.NewAdapter(args...)
			total, err := src.Len(ctx)
			if err != nil {
				return err
			}
			if total == 0 {
				return errors.New("no documents found")
			}

			out := cmd.OutOrStdout()
			cursor := ""
			for batches := 1; ; batches++ {
				docs, next, err := src.FetchBatch(ctx, cursor, batchSize)
				if err != nil {
					return err
				}
				if err := uploadBatch(ctx, out, e, docs, wait, timeout); err != nil {
					return err
				}
				if next == "" {
					if batches > 1 {
						fmt.Fprintln(out, jobSummary(e.session.Poller.Jobs()))
					}
					return nil
				}
				cursor = next
			}
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", true, "follow each ingestion job until it finishes")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "give up waiting for a job after this long")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "files per ingestion job (0 sends everything at once)")
	return cmd
}

func uploadBatch(ctx context.Context, out io.Writer, e *env, docs []source.Document, wait bool, timeout time.Duration) error {
	files := make([]apiclient.Upload, 0, len(docs))
	for _, d := range docs {
		f, err := os.Open(d.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", d.Path, err)
		}
		defer f.Close()
		files = append(files, apiclient.Upload{Name: d.Name, Reader: f})
	}

	jobID, err := e.session.Uploader.Upload(ctx, files)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	fmt.Fprintf(out, "Job %s submitted (%d files)\n", jobID, len(files))
	if !wait {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	job, err := e.session.Poller.Wait(waitCtx, jobID)
	if err != nil {
		e.session.Poller.Cancel(jobID)
		return fmt.Errorf("waiting for job %s: %w", jobID, err)
	}

	for _, msg := range job.Errors {
		fmt.Fprintln(out, e.styles.Danger.Render("! "+msg))
	}
	if err := jobOutcome(job); err != nil {
		return err
	}
	fmt.Fprintf(out, "Indexed %d/%d documents (%d%%)\n", job.DoneCount, job.TotalCount, job.Progress())
	return nil
}

// jobOutcome turns a terminal job that did not finish indexing into an
// error.
func jobOutcome(job domain.IngestJob) error {
	switch job.Status {
	case domain.JobStatusFailed:
		return fmt.Errorf("job %s: %s", job.ID, job.LastError)
	case domain.JobStatusCancelled:
		return fmt.Errorf("job %s cancelled after %d/%d documents", job.ID, job.DoneCount, job.TotalCount)
	}
	return nil
}

// jobSummary counts jobs by status, e.g. "Jobs: 2 done, 1 running".
func jobSummary(jobs []domain.IngestJob) string {
	counts := make(map[domain.JobStatus]int)
	for _, j := range jobs {
		counts[j.Status]++
	}

	order := []domain.JobStatus{
		domain.JobStatusDone,
		domain.JobStatusRunning,
		domain.JobStatusPending,
		domain.JobStatusFailed,
		domain.JobStatusCancelled,
	}
	parts := make([]string, 0, len(order))
	for _, status := range order {
		if n := counts[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	if len(parts) == 0 {
		return "Jobs: none"
	}
	return "Jobs: " + strings.Join(parts, ", ")
}
