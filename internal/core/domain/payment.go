package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NativeMintSentinel selects native SOL in configuration.
const NativeMintSentinel = "native"

// ErrReferenceNotFound means no transaction carries the reference yet. It is
// the expected state before the payer completes the transfer.
var ErrReferenceNotFound = errors.New("reference not found")

// ErrTransactionNotFound means a referenced signature is not yet visible at
// the configured commitment. Like ErrReferenceNotFound it is transient.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrTransferMismatch means a transaction carries the reference but does not
// pay the expected recipient, amount or mint.
var ErrTransferMismatch = errors.New("transfer does not match payment")

// Currency is either native SOL (empty Mint) or a fungible token mint.
type Currency struct {
	Mint string
}

// CurrencyFromMint treats "" and "native" as native SOL.
func CurrencyFromMint(mint string) Currency {
	if mint == "" || mint == NativeMintSentinel {
		return Currency{}
	}
	return Currency{Mint: mint}
}

func (c Currency) IsNative() bool {
	return c.Mint == ""
}

// Code is "SOL" for native payments and the mint address otherwise.
func (c Currency) Code() string {
	if c.IsNative() {
		return "SOL"
	}
	return c.Mint
}

// PaymentMethod distinguishes the QR (payer-initiated) and direct (wallet-signed) paths.
type PaymentMethod string

const (
	PaymentMethodQR     PaymentMethod = "QR"
	PaymentMethodDirect PaymentMethod = "DIRECT"
)

// AttemptStatus is the lifecycle state of a persisted payment attempt.
type AttemptStatus string

const (
	AttemptStatusPending   AttemptStatus = "PENDING"
	AttemptStatusConfirmed AttemptStatus = "CONFIRMED"
	AttemptStatusFailed    AttemptStatus = "FAILED"
	AttemptStatusTimedOut  AttemptStatus = "TIMED_OUT"
	AttemptStatusAborted   AttemptStatus = "ABORTED"
)

// IsTerminal returns true once the attempt can no longer change.
func (s AttemptStatus) IsTerminal() bool {
	return s != AttemptStatusPending
}

// PaymentRequest is one user-initiated payment. Callbacks are optional.
type PaymentRequest struct {
	Amount      string
	Description string
	OrderID     string
	UserID      uuid.UUID
	Owner       string // wallet bound to the caller's token; the only wallet it may pay from
	Wallet      string // wallet named in the request; must equal Owner when set
	OnSuccess   func(signature string)
	OnError     func(message string)
}

// PaymentState is the caller-visible progress of one attempt.
type PaymentState struct {
	IsLoading  bool    `json:"is_loading"`
	Error      *string `json:"error"`
	PaymentURL *string `json:"payment_url"`
	Reference  *string `json:"reference"`
	QRCode     *string `json:"qr_code"` // PNG data URL, desktop only
}

// PaymentAttempt is the persisted record of one attempt.
type PaymentAttempt struct {
	ID         uuid.UUID     `json:"id"`
	Reference  string        `json:"reference"`
	OrderID    string        `json:"order_id"`
	UserID     uuid.UUID     `json:"user_id"`
	Amount     string        `json:"amount"`
	Currency   string        `json:"currency"`
	Recipient  string        `json:"recipient"`
	Method     PaymentMethod `json:"method"`
	Status     AttemptStatus `json:"status"`
	Signature  *string       `json:"signature,omitempty"`
	Error      *string       `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

// Confirmation is what the backend ledger receives for a confirmed payment.
type Confirmation struct {
	Reference string `json:"reference"`
	Signature string `json:"signature"`
}

// ConfirmationReceipt is the backend's view of a credited payment.
type ConfirmationReceipt struct {
	PaymentID        string  `json:"payment_id"`
	CreditsGranted   float64 `json:"credits_granted"`
	AmountPaid       float64 `json:"amount_paid"`
	Currency         string  `json:"currency"`
	NewCreditBalance float64 `json:"new_credit_balance"`
	SenderWallet     string  `json:"sender_wallet"`
	IsTokenPayment   bool    `json:"is_token_payment"`
}

// Wallet is a connected payer wallet.
type Wallet struct {
	Address string
}

// AccountInfo is the subset of on-chain account state the builder needs.
type AccountInfo struct {
	Owner    string
	Lamports uint64
	Data     []byte
}

// TransferIntent is everything needed to build one unsigned transfer.
type TransferIntent struct {
	Payer     string
	Recipient string
	Currency  Currency
	Amount    string
	Reference Reference
	Memo      string
}

// TransferExpectation is what a found transaction must match to count as the payment.
type TransferExpectation struct {
	Recipient string
	Amount    decimal.Decimal
	Reference Reference
	Currency  Currency
}

// TransferRequest is the content of a shareable payment-request URI.
type TransferRequest struct {
	Recipient string
	Amount    decimal.Decimal
	Currency  Currency
	Reference Reference
	Label     string
	Message   string
	Memo      string
}

// AttemptResolution is the terminal outcome written back to a pending attempt.
type AttemptResolution struct {
	Status     AttemptStatus
	Signature  *string
	Error      *string
	ResolvedAt time.Time
}
