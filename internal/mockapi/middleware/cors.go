package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS configuration. An empty AllowedOrigins list with
// AllowAllOrigins unset still echoes every origin back.
type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

// CORS lets a browser front end on another port call the mock service.
func CORS(config CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !IsOriginAllowed(origin, config) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		if config.AllowAllOrigins {
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Credentials", "false")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Origin, Cache-Control, X-Request-ID")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// IsOriginAllowed checks if an origin is allowed based on the configuration
func IsOriginAllowed(origin string, config CORSConfig) bool {
	if config.AllowAllOrigins || len(config.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
