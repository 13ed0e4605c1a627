package handler

import "github.com/gin-gonic/gin"

// abortDetail writes a FastAPI-style {"detail": ...} error body.
func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
