package chain

import (
	"fmt"
	"net/url"
	"strings"

	"solana-payment-gateway/internal/core/domain"

	"github.com/gagliardetto/solana-go"
)

const payURLScheme = "solana"

// PayURLEncoder implements ports.PaymentRequestEncoder with Solana Pay
// transfer-request URLs.
type PayURLEncoder struct{}

// NewPayURLEncoder creates a new PayURLEncoder.
func NewPayURLEncoder() *PayURLEncoder {
	return &PayURLEncoder{}
}

// Encode renders solana:<recipient>?amount=..&spl-token=..&reference=..&label=..&message=..&memo=..
// Parameters keep that order and empty ones are omitted.
func (e *PayURLEncoder) Encode(req domain.TransferRequest) (string, error) {
	if _, err := solana.PublicKeyFromBase58(req.Recipient); err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", req.Recipient, err)
	}
	if !req.Currency.IsNative() {
		if _, err := solana.PublicKeyFromBase58(req.Currency.Mint); err != nil {
			return "", fmt.Errorf("invalid mint %q: %w", req.Currency.Mint, err)
		}
	}
	if req.Amount.IsNegative() {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidAmount, req.Amount)
	}

	var params []string
	add := func(key, value string) {
		if value != "" {
			params = append(params, key+"="+url.QueryEscape(value))
		}
	}
	if req.Amount.IsPositive() {
		add("amount", req.Amount.String())
	}
	if !req.Currency.IsNative() {
		add("spl-token", req.Currency.Mint)
	}
	if !req.Reference.IsZero() {
		add("reference", req.Reference.String())
	}
	add("label", req.Label)
	add("message", req.Message)
	add("memo", req.Memo)

	uri := payURLScheme + ":" + req.Recipient
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}
	return uri, nil
}
