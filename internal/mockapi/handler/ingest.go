package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/querydesk/internal/logger"
	"github.com/timmy/querydesk/internal/mockapi/middleware"
	"github.com/timmy/querydesk/internal/mockapi/store"
)

// IngestHandler serves data source connection and document ingestion.
type IngestHandler struct {
	store *store.Store
}

func NewIngestHandler(st *store.Store) *IngestHandler {
	return &IngestHandler{store: st}
}

type connectRequest struct {
	ConnectionString string `json:"connection_string"`
}

// ConnectDatabase handles POST /api/ingest/database.
func (h *IngestHandler) ConnectDatabase(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	schema, err := h.store.ConnectDatabase(req.ConnectionString)
	if err != nil {
		abortDetail(c, http.StatusBadRequest, err.Error())
		return
	}

	middleware.GetLogger(c).WithField(logger.FieldCount, len(schema.Tables)).Info("Data source connected")
	c.JSON(http.StatusOK, gin.H{"schema": schema})
}

// UploadDocuments handles multipart POST /api/ingest/documents.
func (h *IngestHandler) UploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		abortDetail(c, http.StatusBadRequest, store.ErrNoFiles.Error())
		return
	}

	headers := form.File["files"]
	files := make([]store.File, 0, len(headers))
	for _, fh := range headers {
		content, err := h.readFile(fh)
		if err != nil {
			abortDetail(c, http.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		files = append(files, store.File{Name: fh.Filename, Content: content})
	}

	jobID, err := h.store.CreateJob(files)
	if err != nil {
		abortDetail(c, http.StatusBadRequest, err.Error())
		return
	}

	middleware.GetLogger(c).WithFields(logger.Fields{
		logger.FieldJobID: jobID,
		logger.FieldCount: len(files),
	}).Info("Ingestion job created")
	c.JSON(http.StatusOK, gin.H{"job_id": jobID})
}

// IngestStatus handles GET /api/ingest/status. Unknown jobs get a 200 with
// an error field, matching the service being stood in for.
func (h *IngestHandler) IngestStatus(c *gin.Context) {
	jobID := c.Query("job_id")
	if jobID == "" {
		abortDetail(c, http.StatusBadRequest, "job_id required")
		return
	}

	status, ok := h.store.PollStatus(jobID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"error": "unknown job", "job_id": jobID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"done":   status.Done,
		"total":  status.Total,
		"errors": status.Errors,
		"files":  status.Files,
	})
}

// readFile reads one byte past the size limit so the store can reject
// oversized files without buffering them whole.
func (h *IngestHandler) readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, h.store.MaxFileBytes()+1))
}
