package ports

//go:generate mockgen -source=chain.go -destination=mocks/mock_chain.go -package=mocks

import (
	"context"

	"solana-payment-gateway/internal/core/domain"
)

// Ledger is the read side of the chain RPC used by the builder and the monitor.
type Ledger interface {
	LatestBlockhash(ctx context.Context) (string, error)
	// AccountInfo returns nil, nil when the account does not exist.
	AccountInfo(ctx context.Context, address string) (*domain.AccountInfo, error)
	// FindReference returns the oldest signature that references ref, or
	// domain.ErrReferenceNotFound when none does yet.
	FindReference(ctx context.Context, ref domain.Reference) (string, error)
	ValidateTransfer(ctx context.Context, signature string, want domain.TransferExpectation) error
	// ConfirmTransaction blocks until the signature reaches the configured
	// commitment, fails on chain, or ctx is done.
	ConfirmTransaction(ctx context.Context, signature string) error
}

// TransactionBuilder produces serialized unsigned transfers.
type TransactionBuilder interface {
	Build(ctx context.Context, intent domain.TransferIntent) ([]byte, error)
}

// WalletSigner wraps the payer wallets. SignAndSend returns raw signature bytes.
type WalletSigner interface {
	Wallets(ctx context.Context) ([]domain.Wallet, error)
	SignAndSend(ctx context.Context, wallet domain.Wallet, tx []byte) ([]byte, error)
}

// PaymentRequestEncoder renders a transfer request as a shareable URI.
type PaymentRequestEncoder interface {
	Encode(req domain.TransferRequest) (string, error)
}

// QRRenderer renders content as a PNG data URL.
type QRRenderer interface {
	Render(content string) (string, error)
}

// MonitorCallbacks receive the single terminal outcome of a watch.
type MonitorCallbacks struct {
	OnConfirmed func(signature string)
	OnFailed    func(state domain.MonitorState, message string)
}

// ReferenceWatcher polls the ledger for a transfer carrying a reference.
// Watch blocks until a terminal state and returns it; exactly one callback fires.
type ReferenceWatcher interface {
	Watch(ctx context.Context, want domain.TransferExpectation, cb MonitorCallbacks) domain.MonitorState
}
