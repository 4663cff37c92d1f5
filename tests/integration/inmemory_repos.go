package integration

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"solana-payment-gateway/internal/core/domain"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Attempt Repo ---

type inMemoryAttemptRepo struct {
	mu       sync.RWMutex
	attempts map[string]domain.PaymentAttempt
	receipts map[string]domain.ConfirmationReceipt
}

func newInMemoryAttemptRepo() *inMemoryAttemptRepo {
	return &inMemoryAttemptRepo{
		attempts: make(map[string]domain.PaymentAttempt),
		receipts: make(map[string]domain.ConfirmationReceipt),
	}
}

func (r *inMemoryAttemptRepo) Create(ctx context.Context, a *domain.PaymentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attempts[a.Reference]; ok {
		return fmt.Errorf("duplicate reference %s", a.Reference)
	}
	r.attempts[a.Reference] = *a
	return nil
}

func (r *inMemoryAttemptRepo) GetByReference(ctx context.Context, reference string) (*domain.PaymentAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attempts[reference]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *inMemoryAttemptRepo) GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.PaymentAttempt, error) {
	return r.GetByReference(ctx, reference)
}

func (r *inMemoryAttemptRepo) Resolve(ctx context.Context, tx pgx.Tx, reference string, res domain.AttemptResolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[reference]
	if !ok || a.Status != domain.AttemptStatusPending {
		return errors.New("pending payment attempt not found")
	}
	resolvedAt := res.ResolvedAt
	a.Status = res.Status
	a.Signature = res.Signature
	a.Error = res.Error
	a.ResolvedAt = &resolvedAt
	r.attempts[reference] = a
	return nil
}

func (r *inMemoryAttemptRepo) SaveReceipt(ctx context.Context, reference string, receipt *domain.ConfirmationReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts[reference] = *receipt
	return nil
}

func (r *inMemoryAttemptRepo) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for ref, a := range r.attempts {
		if a.Status == domain.AttemptStatusPending && a.CreatedAt.Before(cutoff) {
			msg := "Payment timeout - please try again"
			now := time.Now().UTC()
			a.Status = domain.AttemptStatusTimedOut
			a.Error = &msg
			a.ResolvedAt = &now
			r.attempts[ref] = a
			n++
		}
	}
	return n, nil
}

func (r *inMemoryAttemptRepo) receipt(reference string) (domain.ConfirmationReceipt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rc, ok := r.receipts[reference]
	return rc, ok
}

// --- Fake chain: ledger + payer wallet ---

// fakeChain stands in for the RPC node. Transfers become visible to
// FindReference once pay or payWrong is called for their reference.
type fakeChain struct {
	mu         sync.Mutex
	blockhash  string
	payer      solana.PrivateKey
	found      map[domain.Reference]string
	mismatched map[domain.Reference]bool
	sent       []*solana.Transaction
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		blockhash:  solana.Hash(solana.NewWallet().PublicKey()).String(),
		payer:      solana.NewWallet().PrivateKey,
		found:      make(map[domain.Reference]string),
		mismatched: make(map[domain.Reference]bool),
	}
}

func (c *fakeChain) payerAddress() string {
	return c.payer.PublicKey().String()
}

func (c *fakeChain) pay(ref domain.Reference) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig := randomSignature()
	c.found[ref] = sig
	return sig
}

func (c *fakeChain) payWrong(ref domain.Reference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.found[ref] = randomSignature()
	c.mismatched[ref] = true
}

func (c *fakeChain) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeChain) LatestBlockhash(ctx context.Context) (string, error) {
	return c.blockhash, nil
}

func (c *fakeChain) AccountInfo(ctx context.Context, address string) (*domain.AccountInfo, error) {
	return nil, nil
}

func (c *fakeChain) FindReference(ctx context.Context, ref domain.Reference) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig, ok := c.found[ref]
	if !ok {
		return "", domain.ErrReferenceNotFound
	}
	return sig, nil
}

func (c *fakeChain) ValidateTransfer(ctx context.Context, signature string, want domain.TransferExpectation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mismatched[want.Reference] {
		return fmt.Errorf("%w: amount differs", domain.ErrTransferMismatch)
	}
	return nil
}

func (c *fakeChain) ConfirmTransaction(ctx context.Context, signature string) error {
	return ctx.Err()
}

func (c *fakeChain) Wallets(ctx context.Context) ([]domain.Wallet, error) {
	return []domain.Wallet{{Address: c.payerAddress()}}, nil
}

func (c *fakeChain) SignAndSend(ctx context.Context, wallet domain.Wallet, raw []byte) ([]byte, error) {
	if wallet.Address != c.payerAddress() {
		return nil, fmt.Errorf("wallet %s is not connected", wallet.Address)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding transaction: %w", err)
	}
	tx.Signatures = nil
	sigs, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(c.payer.PublicKey()) {
			return &c.payer
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	c.mu.Lock()
	c.sent = append(c.sent, tx)
	c.mu.Unlock()
	return sigs[0][:], nil
}

func randomSignature() string {
	var sig solana.Signature
	_, _ = rand.Read(sig[:])
	return sig.String()
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx satisfies pgx.Tx; the in-memory repo serialises writes itself.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
