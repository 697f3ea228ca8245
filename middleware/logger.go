package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID reuses the caller's X-Request-ID or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		line := "%s %s %s %d %s rid=%s"
		if len(c.Errors) > 0 {
			log.Printf(line+" errors=%s", c.Request.Method, c.Request.URL.Path, c.ClientIP(), status, latency, GetRequestID(c), c.Errors.String())
			return
		}
		log.Printf(line, c.Request.Method, c.Request.URL.Path, c.ClientIP(), status, latency, GetRequestID(c))
	}
}
