package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("ORD_001", "Order x not found", http.StatusNotFound),
			expected: "[ORD_001] Order x not found",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, New("ORD_001", "test", http.StatusNotFound).Unwrap())
}

func TestAppError_IsByCode(t *testing.T) {
	err := fmt.Errorf("guard: %w", ErrOrderNotFound("ORD-1"))

	assert.True(t, errors.Is(err, ErrOrderNotFound("other")))
	assert.False(t, errors.Is(err, ErrTransitionConflict("ORD-1")))
	assert.True(t, HasCode(err, "ORD_001"))
	assert.False(t, HasCode(err, "ORD_002"))
	assert.False(t, HasCode(nil, "ORD_001"))
}

func TestErrorCatalog(t *testing.T) {
	inner := fmt.Errorf("boom")
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"MissingSignature", ErrMissingSignature(), "SIG_001", 401},
		{"MalformedSignature", ErrMalformedSignature("missing t"), "SIG_002", 401},
		{"SignatureMismatch", ErrSignatureMismatch(), "SIG_003", 401},
		{"TimestampOutsideWindow", ErrTimestampOutsideWindow(), "SIG_004", 401},
		{"SecretNotConfigured", ErrSecretNotConfigured(), "SIG_005", 401},
		{"MalformedPayload", ErrMalformedPayload(inner), "EVT_001", 400},
		{"OrderNotFound", ErrOrderNotFound("A"), "ORD_001", 404},
		{"TransitionNotAllowed", ErrTransitionNotAllowed("to_pay", "completed"), "ORD_002", 409},
		{"TransitionConflict", ErrTransitionConflict("A"), "ORD_003", 409},
		{"MissingOrderReference", ErrMissingOrderReference(), "ORD_004", 400},
		{"InvalidCreditGrant", ErrInvalidCreditGrant("no user"), "CRD_001", 422},
		{"ProviderRequest", ErrProviderRequest(inner), "PRV_001", 502},
		{"ProviderTimeout", ErrProviderTimeout(inner), "PRV_002", 504},
		{"PaymentNotPaid", ErrPaymentNotPaid("failed"), "PRV_003", 402},
		{"MissingToken", ErrMissingToken(), "AUTH_001", 401},
		{"InvalidToken", ErrInvalidToken(), "AUTH_002", 401},
		{"Forbidden", ErrForbidden(), "AUTH_003", 403},
		{"RateLimit", ErrRateLimitExceeded(), "RATE_001", 429},
		{"Database", ErrDatabaseError(inner), "SYS_001", 500},
		{"Cache", ErrCacheError(inner), "SYS_002", 503},
		{"EventBus", ErrEventBusError(inner), "SYS_003", 503},
		{"Internal", InternalError(inner), "SYS_000", 500},
		{"Validation", Validation("bad page"), "VAL_001", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestMessagesCarryContext(t *testing.T) {
	assert.Contains(t, ErrOrderNotFound("ORD-77").Message, "ORD-77")
	assert.Contains(t, ErrTransitionNotAllowed("completed", "to_pay").Message, "completed -> to_pay")
	assert.Contains(t, ErrPaymentNotPaid("pending").Message, "pending")
}
