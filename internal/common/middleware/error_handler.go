package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrihub-backend/internal/common/errors"
	"agrihub-backend/internal/common/logger"
)

// RequestID tags every request; incoming X-Request-ID headers are honored.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// ErrorHandler recovers panics into structured error responses.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := getRequestID(c)

		logger.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		appErr := errors.New(errors.ErrCodeInternal, "Internal server error").
			WithRequestID(requestID).
			WithDetail("panic", fmt.Sprintf("%v", recovered))

		sendErrorResponse(c, appErr)
	})
}

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
	Path      string           `json:"path,omitempty"`
	Method    string           `json:"method,omitempty"`
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError) {
	requestID := getRequestID(c)
	appErr.WithRequestID(requestID)

	statusCode := getHTTPStatusCode(appErr)

	response := ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	}

	logError(c, appErr, statusCode)
	c.AbortWithStatusJSON(statusCode, response)
}

func getHTTPStatusCode(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeInvalidCode, errors.ErrCodeCodeUsed:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeUnknownChannel:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized, errors.ErrCodeMalformedSession:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden, errors.ErrCodeAccessDenied:
		return http.StatusForbidden
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeSpinNotAllowed:
		return http.StatusTooManyRequests
	case errors.ErrCodeStoreError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func logError(c *gin.Context, appErr *errors.AppError, statusCode int) {
	event := logger.Warn()
	if statusCode >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Err(appErr).
		Str("request_id", appErr.RequestID).
		Str("code", string(appErr.Code)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", statusCode).
		Msg("Request failed")
}

// AbortWithError routes a service error through the shared envelope. Plain
// errors become opaque internal errors so internals never leak to clients.
func AbortWithError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		sendErrorResponse(c, appErr)
		return
	}
	sendErrorResponse(c, errors.Wrap(err, errors.ErrCodeInternal, "Internal server error"))
}
