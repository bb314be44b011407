package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code, so errors.Is(err, ErrOrderNotFound("x")) works
// regardless of message or wrapped cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err wraps an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// ---- Webhook Signature (SIG) ----

func ErrMissingSignature() *AppError {
	return New("SIG_001", "Missing signature header", http.StatusUnauthorized)
}

func ErrMalformedSignature(detail string) *AppError {
	return New("SIG_002", "Malformed signature header: "+detail, http.StatusUnauthorized)
}

func ErrSignatureMismatch() *AppError {
	return New("SIG_003", "Signature mismatch", http.StatusUnauthorized)
}

func ErrTimestampOutsideWindow() *AppError {
	return New("SIG_004", "Signature timestamp outside tolerance", http.StatusUnauthorized)
}

func ErrSecretNotConfigured() *AppError {
	return New("SIG_005", "Webhook secret not configured", http.StatusUnauthorized)
}

// ---- Webhook Payload (EVT) ----

func ErrMalformedPayload(err error) *AppError {
	return Wrap("EVT_001", "Malformed webhook payload", http.StatusBadRequest, err)
}

// ---- Order Transitions (ORD) ----

func ErrOrderNotFound(orderID string) *AppError {
	return New("ORD_001", fmt.Sprintf("Order %s not found", orderID), http.StatusNotFound)
}

func ErrTransitionNotAllowed(from, to string) *AppError {
	return New("ORD_002", fmt.Sprintf("Transition %s -> %s not allowed", from, to), http.StatusConflict)
}

func ErrTransitionConflict(orderID string) *AppError {
	return New("ORD_003", fmt.Sprintf("Order %s changed concurrently", orderID), http.StatusConflict)
}

func ErrMissingOrderReference() *AppError {
	return New("ORD_004", "Missing order reference", http.StatusBadRequest)
}

// ---- Credit Settlement (CRD) ----

func ErrInvalidCreditGrant(reason string) *AppError {
	return New("CRD_001", "Invalid credit grant: "+reason, http.StatusUnprocessableEntity)
}

func ErrGrantNotFound(orderID string) *AppError {
	return New("CRD_002", fmt.Sprintf("No credit grant for order %s", orderID), http.StatusNotFound)
}

// ---- Payment Provider (PRV) ----

func ErrProviderRequest(err error) *AppError {
	return Wrap("PRV_001", "Payment provider request failed", http.StatusBadGateway, err)
}

func ErrProviderTimeout(err error) *AppError {
	return Wrap("PRV_002", "Payment provider timed out", http.StatusGatewayTimeout, err)
}

func ErrPaymentNotPaid(status string) *AppError {
	return New("PRV_003", fmt.Sprintf("Payment not paid (status %q)", status), http.StatusPaymentRequired)
}

// ---- Authentication (AUTH) ----

func ErrMissingToken() *AppError {
	return New("AUTH_001", "Missing bearer token", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_003", "Insufficient role", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrCacheError(err error) *AppError {
	return Wrap("SYS_002", "Cache unavailable", http.StatusServiceUnavailable, err)
}

func ErrEventBusError(err error) *AppError {
	return Wrap("SYS_003", "Event bus unavailable", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_000 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_000", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
