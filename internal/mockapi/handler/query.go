package handler

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/logger"
	"github.com/timmy/querydesk/internal/mockapi/middleware"
	"github.com/timmy/querydesk/internal/mockapi/store"
)

const defaultQueryLimit = 50

// QueryHandler answers queries and serves their history.
type QueryHandler struct {
	store *store.Store
}

func NewQueryHandler(st *store.Store) *QueryHandler {
	return &QueryHandler{store: st}
}

type queryRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Query handles POST /api/query.
func (h *QueryHandler) Query(c *gin.Context) {
	start := time.Now()

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultQueryLimit
	}

	out, err := h.store.Query(req.Query, req.Limit, req.Offset)
	switch {
	case errors.Is(err, store.ErrEmptyQuery):
		abortDetail(c, http.StatusBadRequest, "Query must not be empty")
		return
	case errors.Is(err, store.ErrNoDataSource):
		abortDetail(c, http.StatusBadRequest, "No data source connected")
		return
	case err != nil:
		abortDetail(c, http.StatusInternalServerError, "Query failed: "+err.Error())
		return
	}

	elapsed := math.Round(float64(time.Since(start).Microseconds())/10) / 100
	cacheHit, _ := out.PerformanceMetrics["cache_hit"].(bool)
	out.PerformanceMetrics["response_time_ms"] = elapsed
	h.store.RecordQuery(req.Query, domain.QueryMetrics{CacheHit: cacheHit, ResponseTimeMs: elapsed})

	middleware.GetLogger(c).WithFields(logger.Fields{
		logger.FieldCount:  len(out.Results.Table) + len(out.Results.Documents),
		logger.FieldStatus: out.QueryType,
		"cache_hit":        cacheHit,
	}).Info("Query answered")
	c.JSON(http.StatusOK, out)
}

// History handles GET /api/query/history.
func (h *QueryHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": h.store.History()})
}
