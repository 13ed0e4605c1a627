package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/timmy/querydesk/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// LoggerMiddleware returns a Gin middleware that injects a request-scoped logger.
// A request id sent by the client is kept so both sides log the same value.
// Parameters:
//   - log: base logger to enrich with request fields.
// Returns:
//   - gin.HandlerFunc: middleware handler.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		reqLog := log.WithFields(logger.Fields{
			logger.FieldRequestID: requestID,
			logger.FieldComponent: "mockapi",
			logger.FieldEndpoint:  path,
		})
		ctx := reqLog.WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Set("logger", reqLog)
		c.Header(requestIDHeader, requestID)

		logger.CtxDebug(ctx, "Request started: method=%s, client_ip=%s", c.Request.Method, c.ClientIP())

		c.Next()

		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}

		logger.With(logger.Fields{
			logger.FieldStatus:     c.Writer.Status(),
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
			logger.FieldSize:       c.Writer.Size(),
		}).Info(ctx, "Request completed: method=%s, path=%s", c.Request.Method, fullPath)
	}
}

// GetLogger extracts logger from Gin context or request context.
func GetLogger(c *gin.Context) *logger.Logger {
	if l, exists := c.Get("logger"); exists {
		if log, ok := l.(*logger.Logger); ok {
			return log
		}
	}
	return logger.FromContext(c.Request.Context())
}
