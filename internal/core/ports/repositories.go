package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"solana-payment-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AttemptRepository persists payment attempts.
// Methods accepting pgx.Tx run inside a transaction and lock the row.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error
	GetByReference(ctx context.Context, reference string) (*domain.PaymentAttempt, error)
	GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.PaymentAttempt, error)
	Resolve(ctx context.Context, tx pgx.Tx, reference string, res domain.AttemptResolution) error
	SaveReceipt(ctx context.Context, reference string, receipt *domain.ConfirmationReceipt) error
	// ExpirePending times out attempts left PENDING since before cutoff.
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReferenceRegistry reserves references server-side before polling starts.
type ReferenceRegistry interface {
	// Register returns false if the reference is already registered.
	Register(ctx context.Context, reference string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, reference string) error
}

// StateCache holds the latest PaymentState per reference for readers on other instances.
type StateCache interface {
	Get(ctx context.Context, reference string) (*domain.PaymentState, error) // nil on miss
	Set(ctx context.Context, reference string, state *domain.PaymentState, ttl time.Duration) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
