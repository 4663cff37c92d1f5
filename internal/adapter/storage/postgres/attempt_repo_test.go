package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestAttempt() *domain.PaymentAttempt {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.PaymentAttempt{
		ID:        uuid.New(),
		Reference: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		OrderID:   "order-42",
		UserID:    uuid.New(),
		Amount:    "1.5",
		Currency:  "SOL",
		Recipient: "Merchant1111111111111111111111111111111111",
		Method:    domain.PaymentMethodQR,
		Status:    domain.AttemptStatusPending,
		CreatedAt: now,
	}
}

func attemptColumnNames() []string {
	return []string{"id", "reference", "order_id", "user_id", "amount", "currency", "recipient",
		"method", "status", "signature", "error", "created_at", "resolved_at"}
}

func attemptRow(a *domain.PaymentAttempt) *pgxmock.Rows {
	return pgxmock.NewRows(attemptColumnNames()).AddRow(
		a.ID, a.Reference, a.OrderID, a.UserID, a.Amount, a.Currency, a.Recipient,
		a.Method, a.Status, a.Signature, a.Error, a.CreatedAt, a.ResolvedAt,
	)
}

func TestAttemptRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)
	a := newTestAttempt()

	mock.ExpectExec("INSERT INTO payment_attempts").
		WithArgs(
			a.ID, a.Reference, a.OrderID, a.UserID, a.Amount, a.Currency, a.Recipient,
			a.Method, a.Status, a.Signature, a.Error, a.CreatedAt, a.ResolvedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepo_Create_DuplicateReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)
	a := newTestAttempt()

	mock.ExpectExec("INSERT INTO payment_attempts").
		WithArgs(
			a.ID, a.Reference, a.OrderID, a.UserID, a.Amount, a.Currency, a.Recipient,
			a.Method, a.Status, a.Signature, a.Error, a.CreatedAt, a.ResolvedAt,
		).
		WillReturnError(errors.New("duplicate key value violates unique constraint"))

	err = repo.Create(context.Background(), a)
	assert.ErrorContains(t, err, "insert payment attempt")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepo_GetByReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)
	a := newTestAttempt()
	a.Status = domain.AttemptStatusConfirmed
	a.Signature = strPtr("5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnb")

	mock.ExpectQuery("SELECT .+ FROM payment_attempts WHERE reference").
		WithArgs(a.Reference).
		WillReturnRows(attemptRow(a))

	got, err := repo.GetByReference(context.Background(), a.Reference)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, domain.AttemptStatusConfirmed, got.Status)
	assert.Equal(t, domain.PaymentMethodQR, got.Method)
	assert.Equal(t, *a.Signature, *got.Signature)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepo_GetByReference_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM payment_attempts WHERE reference").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(attemptColumnNames()))

	got, err := repo.GetByReference(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepo_GetByReferenceForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)
	a := newTestAttempt()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM payment_attempts WHERE reference = \\$1 FOR UPDATE").
		WithArgs(a.Reference).
		WillReturnRows(attemptRow(a))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	got, err := repo.GetByReferenceForUpdate(context.Background(), dbTx, a.Reference)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.AttemptStatusPending, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepo_Resolve(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)
	sig := "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnb"
	res := domain.AttemptResolution{
		Status:     domain.AttemptStatusConfirmed,
		Signature:  &sig,
		ResolvedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payment_attempts SET status").
		WithArgs(res.Status, res.Signature, res.Error, res.ResolvedAt, "Ref").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Resolve(context.Background(), dbTx, "Ref", res))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepo_Resolve_AlreadyTerminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payment_attempts SET status").
		WithArgs(domain.AttemptStatusFailed, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "Ref").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Resolve(context.Background(), dbTx, "Ref", domain.AttemptResolution{Status: domain.AttemptStatusFailed})
	assert.ErrorContains(t, err, "pending payment attempt not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepo_SaveReceipt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)
	rc := &domain.ConfirmationReceipt{
		PaymentID:        "pay_1",
		CreditsGranted:   150,
		AmountPaid:       1.5,
		Currency:         "SOL",
		NewCreditBalance: 350,
		SenderWallet:     "Payer1",
	}

	mock.ExpectExec("INSERT INTO payment_receipts .+ ON CONFLICT \\(reference\\) DO UPDATE").
		WithArgs("Ref", rc.PaymentID, rc.CreditsGranted, rc.AmountPaid,
			rc.Currency, rc.NewCreditBalance, rc.SenderWallet, rc.IsTokenPayment).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.SaveReceipt(context.Background(), "Ref", rc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepo_ExpirePending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAttemptRepo(mock)
	cutoff := time.Now().UTC().Add(-10 * time.Minute)

	mock.ExpectExec("UPDATE payment_attempts SET status = 'TIMED_OUT'").
		WithArgs("Payment timeout - please try again", pgxmock.AnyArg(), cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	n, err := repo.ExpirePending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_Begin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	mock.ExpectRollback()

	tx, err := NewTransactor(mock).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_BeginFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}).
		WillReturnError(errors.New("too many connections"))

	tx, err := NewTransactor(mock).Begin(context.Background())
	assert.Nil(t, tx)
	assert.ErrorContains(t, err, "begin attempt tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgresql", hc.Name())
	assert.NoError(t, hc.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS payment_attempts").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	assert.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}
