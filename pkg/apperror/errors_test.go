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
			appErr:   New("PAY_001", "Invalid amount", http.StatusBadRequest),
			expected: "[PAY_001] Invalid amount",
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
	inner := fmt.Errorf("rpc: 503")
	appErr := ErrBuildFailed(inner)
	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, New("PAY_001", "x", http.StatusBadRequest).Unwrap())
}

func TestPaymentErrors(t *testing.T) {
	inner := errors.New("boom")
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"NoWallet", ErrNoWalletConnected(), "WAL_001", 412},
		{"InvalidAmount", ErrInvalidAmount(inner), "PAY_001", 400},
		{"BuildFailed", ErrBuildFailed(inner), "PAY_002", 502},
		{"SigningFailed", ErrSigningFailed(inner), "PAY_003", 502},
		{"ValidationFailed", ErrValidationFailed(inner), "PAY_004", 422},
		{"Timeout", ErrPaymentTimeout(), "PAY_005", 408},
		{"NotFound", ErrNotFound("Payment attempt"), "PAY_006", 404},
		{"Resolved", ErrAttemptResolved(), "PAY_007", 409},
		{"Collision", ErrReferenceCollision(), "PAY_008", 409},
		{"Cancelled", ErrPaymentCancelled(), "PAY_009", 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_001", 401},
		{"RateLimit", ErrRateLimitExceeded(), "RATE_001", 429},
		{"Database", ErrDatabaseError(inner), "SYS_001", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("monitor: %w", ErrPaymentTimeout())
	assert.True(t, HasCode(wrapped, "PAY_005"))
	assert.False(t, HasCode(wrapped, "PAY_004"))
	assert.False(t, HasCode(errors.New("plain"), "PAY_005"))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Payment timeout - please try again", UserMessage(ErrPaymentTimeout()))
	assert.Equal(t, "Failed to build transaction: mint account not found",
		UserMessage(ErrBuildFailed(errors.New("mint account not found"))))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Payment attempt")
	assert.Equal(t, "Payment attempt not found", err.Message)
}
