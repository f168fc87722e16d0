package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/limaJavier/gradplan/internal/logger"
)

const (
	RequestIdHeader = "X-Request-ID"
	requestIdKey    = "request_id"
)

// RequestIdMiddleware keeps the caller's request id, or assigns a new one, and echoes it back
func RequestIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIdHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIdKey, id)
		c.Header(RequestIdHeader, id)
		c.Next()
	}
}

func RequestId(c *gin.Context) string {
	return c.GetString(requestIdKey)
}

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info().
			Str("request_id", RequestId(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}
