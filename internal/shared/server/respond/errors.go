package respond

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerKey is the gin context key holding the request-scoped logger.
const LoggerKey = "logger"

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	}
	if status >= 500 {
		Logger(c).Error("http.error", fields...)
	} else {
		Logger(c).Warn("http.error", fields...)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Logger returns the request-scoped logger, or a no-op logger outside the middleware chain.
func Logger(c *gin.Context) *zap.Logger {
	if c != nil {
		if v, ok := c.Get(LoggerKey); ok {
			if l, ok := v.(*zap.Logger); ok && l != nil {
				return l
			}
		}
	}
	return zap.NewNop()
}
