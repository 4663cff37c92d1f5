package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-payment-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const attemptColumns = `id, reference, order_id, user_id, amount, currency, recipient,
		method, status, signature, error, created_at, resolved_at`

const expiredMessage = "Payment timeout - please try again"

// AttemptRepo implements ports.AttemptRepository.
type AttemptRepo struct {
	pool Pool
}

// NewAttemptRepo creates a new AttemptRepo.
func NewAttemptRepo(pool Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Create inserts a new pending attempt.
func (r *AttemptRepo) Create(ctx context.Context, a *domain.PaymentAttempt) error {
	query := `INSERT INTO payment_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Reference, a.OrderID, a.UserID, a.Amount, a.Currency, a.Recipient,
		a.Method, a.Status, a.Signature, a.Error, a.CreatedAt, a.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment attempt: %w", err)
	}
	return nil
}

// GetByReference fetches an attempt by its reference, or nil if none exists.
func (r *AttemptRepo) GetByReference(ctx context.Context, reference string) (*domain.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE reference = $1`
	return scanAttempt(r.pool.QueryRow(ctx, query, reference))
}

// GetByReferenceForUpdate fetches and row-locks an attempt inside tx.
func (r *AttemptRepo) GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE reference = $1 FOR UPDATE`
	return scanAttempt(tx.QueryRow(ctx, query, reference))
}

// Resolve moves a pending attempt to its terminal status within tx.
func (r *AttemptRepo) Resolve(ctx context.Context, tx pgx.Tx, reference string, res domain.AttemptResolution) error {
	query := `UPDATE payment_attempts SET status = $1, signature = $2, error = $3, resolved_at = $4
		WHERE reference = $5 AND status = 'PENDING'`

	tag, err := tx.Exec(ctx, query, res.Status, res.Signature, res.Error, res.ResolvedAt, reference)
	if err != nil {
		return fmt.Errorf("resolve payment attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending payment attempt not found: %s", reference)
	}
	return nil
}

// SaveReceipt stores the backend's receipt for a confirmed attempt.
func (r *AttemptRepo) SaveReceipt(ctx context.Context, reference string, rc *domain.ConfirmationReceipt) error {
	query := `INSERT INTO payment_receipts (reference, payment_id, credits_granted, amount_paid,
		currency, new_credit_balance, sender_wallet, is_token_payment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (reference) DO UPDATE SET
			payment_id = EXCLUDED.payment_id,
			credits_granted = EXCLUDED.credits_granted,
			amount_paid = EXCLUDED.amount_paid,
			currency = EXCLUDED.currency,
			new_credit_balance = EXCLUDED.new_credit_balance,
			sender_wallet = EXCLUDED.sender_wallet,
			is_token_payment = EXCLUDED.is_token_payment`

	_, err := r.pool.Exec(ctx, query,
		reference, rc.PaymentID, rc.CreditsGranted, rc.AmountPaid,
		rc.Currency, rc.NewCreditBalance, rc.SenderWallet, rc.IsTokenPayment,
	)
	if err != nil {
		return fmt.Errorf("save payment receipt: %w", err)
	}
	return nil
}

// ExpirePending times out every attempt still pending that was created before cutoff.
func (r *AttemptRepo) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE payment_attempts SET status = 'TIMED_OUT', error = $1, resolved_at = $2
		WHERE status = 'PENDING' AND created_at < $3`

	tag, err := r.pool.Exec(ctx, query, expiredMessage, time.Now().UTC(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire pending attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAttempt(row pgx.Row) (*domain.PaymentAttempt, error) {
	a := &domain.PaymentAttempt{}
	err := row.Scan(
		&a.ID, &a.Reference, &a.OrderID, &a.UserID, &a.Amount, &a.Currency, &a.Recipient,
		&a.Method, &a.Status, &a.Signature, &a.Error, &a.CreatedAt, &a.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment attempt: %w", err)
	}
	return a, nil
}
