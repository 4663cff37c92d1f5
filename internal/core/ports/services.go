package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"solana-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// ClientKind is the caller's form factor. Mobile clients get no QR image.
type ClientKind string

const (
	ClientDesktop ClientKind = "desktop"
	ClientMobile  ClientKind = "mobile"
)

// RequestOptions tune the QR path.
type RequestOptions struct {
	Client ClientKind
}

// PaymentStatus pairs the live state with the persisted attempt.
type PaymentStatus struct {
	State   domain.PaymentState    `json:"state"`
	Attempt *domain.PaymentAttempt `json:"attempt,omitempty"`
}

// PaymentService orchestrates one payment attempt end to end.
type PaymentService interface {
	CreatePaymentRequest(ctx context.Context, req domain.PaymentRequest, opts RequestOptions) (*domain.PaymentState, error)
	DirectPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentState, error)
	CreateMobilePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentState, error)
	State(ctx context.Context, reference string) (*PaymentStatus, error)
	Abort(ctx context.Context, reference string) error
}

// Notifier forwards confirmed payments to the credits backend.
type Notifier interface {
	NotifyConfirmation(ctx context.Context, userID uuid.UUID, c domain.Confirmation) (*domain.ConfirmationReceipt, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, wallet string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Wallet string
}
