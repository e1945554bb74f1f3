package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitConcurrent rejects requests with 429 while max requests of the same
// route group are already in flight. Used in front of endpoints that run
// an external process per request (ffprobe).
func LimitConcurrent(max int) gin.HandlerFunc {
	semaphore := make(chan struct{}, max)

	return func(c *gin.Context) {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many concurrent requests",
			})
		}
	}
}
