// Package apiclient talks to the query service: data source ingestion,
// document ingestion, status polling, schema, history, queries and health.
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
)

const (
	pathIngestDatabase  = "/api/ingest/database"
	pathIngestDocuments = "/api/ingest/documents"
	pathIngestStatus    = "/api/ingest/status"
	pathSchema          = "/api/schema"
	pathQueryHistory    = "/api/query/history"
	pathQuery           = "/api/query"
	pathHealth          = "/health"

	headerRequestID = "X-Request-ID"
)

// Config holds configuration for the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client is a typed wrapper around the service's HTTP API.
type Client struct {
	client *resty.Client
	logger *logger.Logger
}

// New creates a client for the query service.
// Parameters:
//   - cfg: base URL and request timeout.
//   - log: request logger; nil uses the default.
// Returns:
//   - *Client: client ready for use.
func New(cfg Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.GetDefault()
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.Transport != nil {
		client.SetTransport(cfg.Transport)
	}
	client.SetHeader("Accept", "application/json")

	return &Client{
		client: client,
		logger: log.WithComponent("apiclient"),
	}
}

// Upload is one file of a document batch.
type Upload struct {
	Name   string
	Reader io.Reader
}

type connectRequest struct {
	ConnectionString string `json:"connection_string"`
}

type schemaResponse struct {
	Schema domain.Schema `json:"schema"`
}

type uploadResponse struct {
	JobID string `json:"job_id"`
}

type historyResponse struct {
	History []domain.QueryHistoryEntry `json:"history"`
}

// QueryRequest is the body of a query submission.
type QueryRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ConnectDatabase asks the service to discover the schema behind connString.
func (c *Client) ConnectDatabase(ctx context.Context, connString string) (*domain.Schema, error) {
	var out schemaResponse
	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(connectRequest{ConnectionString: connString}).
		SetResult(&out)

	if err := c.do(ctx, req, http.MethodPost, pathIngestDatabase, "Failed to connect"); err != nil {
		return nil, err
	}
	out.Schema.Normalize()
	return &out.Schema, nil
}

// UploadDocuments submits files as one multipart batch and returns the
// ingestion job id.
func (c *Client) UploadDocuments(ctx context.Context, files []Upload) (string, error) {
	var out uploadResponse
	req := c.request(ctx).SetResult(&out)
	for _, f := range files {
		req.SetFileReader("files", f.Name, f.Reader)
	}

	if err := c.do(ctx, req, http.MethodPost, pathIngestDocuments, "Upload failed"); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", fmt.Errorf("upload response missing job_id")
	}
	return out.JobID, nil
}

// IngestStatus fetches the progress of jobID. An unknown job yields an
// error wrapping ErrUnknownJob.
func (c *Client) IngestStatus(ctx context.Context, jobID string) (*domain.IngestStatus, error) {
	var out domain.IngestStatus
	req := c.request(ctx).
		SetQueryParam("job_id", jobID).
		SetResult(&out)

	if err := c.do(ctx, req, http.MethodGet, pathIngestStatus, "Status check failed"); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownJob, jobID, out.Error)
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	if out.Files == nil {
		out.Files = []domain.FileStatus{}
	}
	return &out, nil
}

// Schema returns the last discovered schema. The service answers with an
// empty object before any data source is connected.
func (c *Client) Schema(ctx context.Context) (*domain.Schema, error) {
	var out schemaResponse
	req := c.request(ctx).SetResult(&out)

	if err := c.do(ctx, req, http.MethodGet, pathSchema, "Failed to load schema"); err != nil {
		return nil, err
	}
	out.Schema.Normalize()
	return &out.Schema, nil
}

// QueryHistory returns the service's recent queries, oldest first.
func (c *Client) QueryHistory(ctx context.Context) ([]domain.QueryHistoryEntry, error) {
	var out historyResponse
	req := c.request(ctx).SetResult(&out)

	if err := c.do(ctx, req, http.MethodGet, pathQueryHistory, "Failed to load history"); err != nil {
		return nil, err
	}
	if out.History == nil {
		return []domain.QueryHistoryEntry{}, nil
	}
	return out.History, nil
}

// Query runs a natural-language query.
func (c *Client) Query(ctx context.Context, in QueryRequest) (*domain.ResultPayload, error) {
	var out domain.ResultPayload
	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(in).
		SetResult(&out)

	if err := c.do(ctx, req, http.MethodPost, pathQuery, "Query failed"); err != nil {
		return nil, err
	}
	out.Normalize()
	return &out, nil
}

// Health probes the service.
func (c *Client) Health(ctx context.Context) (*domain.HealthStatus, error) {
	var out domain.HealthStatus
	req := c.request(ctx).SetResult(&out)

	if err := c.do(ctx, req, http.MethodGet, pathHealth, "Health check failed"); err != nil {
		return nil, err
	}
	if out.Status == "" {
		out.Status = domain.HealthUnknown
	}
	return &out, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return c.client.R().
		SetContext(ctx).
		SetHeader(headerRequestID, requestID).
		SetError(&errorBody{})
}

// do executes req and maps the outcome onto the error taxonomy: transport
// failures are wrapped, non-success responses become *APIError with the
// body's detail or fallback.
func (c *Client) do(ctx context.Context, req *resty.Request, method, path, fallback string) error {
	start := time.Now()
	resp, err := req.Execute(method, path)

	log := c.logger.WithFields(logger.Fields{
		logger.FieldEndpoint:   method + " " + path,
		logger.FieldRequestID:  req.Header.Get(headerRequestID),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	})
	if jobID := logger.GetJobID(ctx); jobID != "" {
		log = log.WithField(logger.FieldJobID, jobID)
	}

	if err != nil {
		log.WithError(err).Debug("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	log = log.WithField(logger.FieldStatus, resp.StatusCode())
	if !resp.IsSuccess() {
		detail := fallback
		if body, ok := resp.Error().(*errorBody); ok && body.Detail != "" {
			detail = body.Detail
		}
		log.Debugf("request rejected: %s", detail)
		return &APIError{StatusCode: resp.StatusCode(), Detail: detail}
	}

	log.Debug("request completed")
	return nil
}
