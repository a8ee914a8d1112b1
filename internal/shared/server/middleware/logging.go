package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recommendation-backend/internal/shared/server/respond"
)

// Logging attaches a request-scoped logger and emits one structured line per request.
func Logging(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		reqID := RequestIDFromContext(c)
		reqLogger := logger.With(zap.String("request_id", reqID))
		c.Set(respond.LoggerKey, reqLogger)

		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if resumeID := c.GetString(ResumeIDKey); resumeID != "" {
			fields = append(fields, zap.String("resume_id", resumeID))
		}
		if letterID := c.GetString(LetterIDKey); letterID != "" {
			fields = append(fields, zap.String("letter_id", letterID))
		}
		reqLogger.Info("request.complete", fields...)
	}
}

// Context keys handlers may set so the request log carries the subject ids.
const (
	ResumeIDKey = "resumeId"
	LetterIDKey = "letterId"
)
