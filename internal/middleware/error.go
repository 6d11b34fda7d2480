package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/fridgewatch/fridgewatch/backend/internal/types"
)

// ErrorClassifier maps an error to a status code and a client-facing message.
type ErrorClassifier func(err error) (status int, message string)

// ErrorHandler renders the last error attached with c.Error as a JSON body.
// Server errors are logged with their full text; clients only see the
// classified message.
func ErrorHandler(logger *slog.Logger, classify ErrorClassifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("method", c.Request.Method),
				slog.String("path", c.FullPath()),
				slog.Int("status", status),
				slog.String("error", err.Error()),
			)
		}
		c.AbortWithStatusJSON(status, types.ErrorResponse{Error: message})
	}
}

// Recovery converts panics into 500 responses and logs the stack.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error"})
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
