package handlers

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wikichallenge/wikichallenge-server/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST ID MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const ctxKeyRequestID = "request_id"

// RequestID reuses the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RequestLogger logs one line per request. The websocket route logs on
// disconnect, so its latency is the connection lifetime.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Latency(time.Since(start)),
			logger.String("ip", c.ClientIP()),
			logger.String("request_id", GetRequestID(c)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("http request", fields...)
			return
		}
		log.Info("http request", fields...)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Recovery turns a handler panic into a 500 JSON error.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", c.Request.URL.Path),
					logger.String("request_id", GetRequestID(c)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "internal_server_error",
					"message": "An unexpected error occurred",
				})
			}
		}()
		c.Next()
	}
}
