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
	Err        error  `json:"-"` // not exposed to clients
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

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// UserMessage renders err the way it is shown to the payer: the AppError
// message plus the wrapped cause, or the raw error text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return appErr.Message + ": " + appErr.Err.Error()
		}
		return appErr.Message
	}
	return err.Error()
}

// ---- Wallet (WAL) ----

func ErrNoWalletConnected() *AppError {
	return New("WAL_001", "No wallet connected", http.StatusPreconditionFailed)
}

// ---- Payment flow (PAY) ----

func ErrInvalidAmount(err error) *AppError {
	return Wrap("PAY_001", "Invalid amount", http.StatusBadRequest, err)
}

func ErrBuildFailed(err error) *AppError {
	return Wrap("PAY_002", "Failed to build transaction", http.StatusBadGateway, err)
}

func ErrSigningFailed(err error) *AppError {
	return Wrap("PAY_003", "Wallet failed to sign or send transaction", http.StatusBadGateway, err)
}

func ErrValidationFailed(err error) *AppError {
	return Wrap("PAY_004", "Payment validation failed - please try again", http.StatusUnprocessableEntity, err)
}

func ErrPaymentTimeout() *AppError {
	return New("PAY_005", "Payment timeout - please try again", http.StatusRequestTimeout)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_006", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrAttemptResolved() *AppError {
	return New("PAY_007", "Payment attempt already resolved", http.StatusConflict)
}

func ErrReferenceCollision() *AppError {
	return New("PAY_008", "Payment reference already registered", http.StatusConflict)
}

func ErrPaymentCancelled() *AppError {
	return New("PAY_009", "Payment cancelled", http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a PAY_001-style validation error.
func Validation(message string) *AppError {
	return New("PAY_001", message, http.StatusBadRequest)
}
