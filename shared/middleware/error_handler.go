package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradeguard/platform/shared/apperrors"
	"github.com/tradeguard/platform/shared/logging"
)

// APIErrorResponse is the body of every non-2xx JSON response. Success is
// always false; the web client branches on it.
type APIErrorResponse struct {
	Success   bool              `json:"success"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperrors.FromError(c.Errors.Last().Err)
		logError(logger, c, appErr)
		c.JSON(appErr.HTTPStatus, newErrorResponse(c, appErr))
	}
}

// AbortWithAppError writes appErr and stops the chain.
func AbortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, newErrorResponse(c, appErr))
}

// AbortWithError maps err through apperrors.FromError and aborts.
func AbortWithError(c *gin.Context, err error) {
	AbortWithAppError(c, apperrors.FromError(err))
}

func newErrorResponse(c *gin.Context, appErr *apperrors.AppError) APIErrorResponse {
	return APIErrorResponse{
		Success:   false,
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

func logError(logger *logging.Logger, c *gin.Context, appErr *apperrors.AppError) {
	l := logger.WithContext(c.Request.Context())
	attrs := []any{
		"code", appErr.Code,
		"message", appErr.Message,
		"status", appErr.HTTPStatus,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	}
	if appErr.Err != nil {
		attrs = append(attrs, "cause", appErr.Err.Error())
	}

	if appErr.HTTPStatus >= 500 {
		l.Error("Request failed", attrs...)
	} else {
		l.Warn("Request rejected", attrs...)
	}
}
