package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/querydesk/internal/domain"
	"github.com/timmy/querydesk/internal/mockapi/store"
)

type SchemaHandler struct {
	store *store.Store
}

func NewSchemaHandler(st *store.Store) *SchemaHandler {
	return &SchemaHandler{store: st}
}

// Schema handles GET /api/schema. Before any connection the schema is empty.
func (h *SchemaHandler) Schema(c *gin.Context) {
	schema := h.store.Schema()
	if schema == nil {
		schema = &domain.Schema{}
		schema.Normalize()
	}
	c.JSON(http.StatusOK, gin.H{"schema": schema})
}
