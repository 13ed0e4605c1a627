// Package mockapi is an in-memory stand-in for the query service. It serves
// the same seven endpoints the client calls so the tool can be exercised
// without the real backend.
package mockapi

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/querydesk/internal/logger"
	"github.com/timmy/querydesk/internal/mockapi/handler"
	"github.com/timmy/querydesk/internal/mockapi/middleware"
	"github.com/timmy/querydesk/internal/mockapi/store"
)

// Options configures the router.
type Options struct {
	Mode   string // debug, release or test
	CORS   middleware.CORSConfig
	Logger *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(st *store.Store, opts Options) *gin.Engine {
	switch opts.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(opts.CORS))

	healthHandler := handler.NewHealthHandler()
	ingestHandler := handler.NewIngestHandler(st)
	schemaHandler := handler.NewSchemaHandler(st)
	queryHandler := handler.NewQueryHandler(st)

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	{
		api.POST("/ingest/database", ingestHandler.ConnectDatabase)
		api.POST("/ingest/documents", ingestHandler.UploadDocuments)
		api.GET("/ingest/status", ingestHandler.IngestStatus)

		api.GET("/schema", schemaHandler.Schema)

		api.POST("/query", queryHandler.Query)
		api.GET("/query/history", queryHandler.History)
	}

	return r
}
