package response

import (
	"errors"
	"net/http"
	"time"

	"harvest-settlement/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the standard success envelope for admin endpoints.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the standard error envelope for admin endpoints.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ReceivedResponse acknowledges a webhook delivery. The provider only looks at the status.
type ReceivedResponse struct {
	Received  bool   `json:"received"`
	RequestID string `json:"request_id"`
}

// RejectedResponse is returned for deliveries refused before routing.
type RejectedResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// FailedResponse is returned when processing aborts unexpectedly.
type FailedResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			ErrorCode: appErr.Code,
			Message:   appErr.Message,
			RequestID: getRequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode: "SYS_000",
		Message:   "Internal server error",
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Received acknowledges a webhook with 200.
func Received(c *gin.Context) {
	c.JSON(http.StatusOK, ReceivedResponse{Received: true, RequestID: getRequestID(c)})
}

// Rejected aborts a webhook with the AppError's status (401 or 429) and a short reason.
func Rejected(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	details := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus
		details = appErr.Message
	}
	title := "Invalid signature"
	if status == http.StatusTooManyRequests {
		title = "Too many invalid signatures"
	}
	c.AbortWithStatusJSON(status, RejectedResponse{Error: title, Details: details})
}

// Failed aborts with 500 and the request id so the delivery can be traced.
func Failed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, FailedResponse{
		Error:     "Internal server error",
		RequestID: getRequestID(c),
	})
}

// getRequestID retrieves request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
