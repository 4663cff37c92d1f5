package chain

import (
	"fmt"

	"solana-payment-gateway/internal/core/domain"
)

// transferView is the part of a confirmed transaction that validation reads.
type transferView struct {
	Err               interface{}
	AccountKeys       []string
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []tokenBalance
	PostTokenBalances []tokenBalance
}

type tokenBalance struct {
	AccountIndex uint16
	Owner        string
	Mint         string
	Amount       uint64
	Decimals     uint8
}

// validateTransferView checks that the transaction succeeded, carries the
// reference, and moved exactly the expected amount to the recipient.
func validateTransferView(v transferView, want domain.TransferExpectation) error {
	if v.Err != nil {
		return fmt.Errorf("%w: transaction failed: %v", domain.ErrTransferMismatch, v.Err)
	}
	if !want.Reference.IsZero() && indexOf(v.AccountKeys, want.Reference.String()) < 0 {
		return fmt.Errorf("%w: reference %s not in transaction", domain.ErrTransferMismatch, want.Reference)
	}
	if want.Currency.IsNative() {
		return validateNative(v, want)
	}
	return validateToken(v, want)
}

func validateNative(v transferView, want domain.TransferExpectation) error {
	idx := indexOf(v.AccountKeys, want.Recipient)
	if idx < 0 || idx >= len(v.PreBalances) || idx >= len(v.PostBalances) {
		return fmt.Errorf("%w: recipient %s not in transaction", domain.ErrTransferMismatch, want.Recipient)
	}
	expected, err := domain.ToBaseUnits(want.Amount, domain.NativeDecimals)
	if err != nil {
		return err
	}

	pre, post := v.PreBalances[idx], v.PostBalances[idx]
	if post < pre || post-pre != expected {
		return fmt.Errorf("%w: recipient received %s SOL, expected %s",
			domain.ErrTransferMismatch, signedDelta(pre, post, domain.NativeDecimals), want.Amount)
	}
	return nil
}

func validateToken(v transferView, want domain.TransferExpectation) error {
	var post *tokenBalance
	for i := range v.PostTokenBalances {
		tb := &v.PostTokenBalances[i]
		if tb.Owner == want.Recipient && tb.Mint == want.Currency.Mint {
			post = tb
			break
		}
	}
	if post == nil {
		return fmt.Errorf("%w: no %s balance for recipient %s", domain.ErrTransferMismatch, want.Currency.Mint, want.Recipient)
	}

	// A destination account created in the same transaction has no pre balance.
	var pre uint64
	for _, tb := range v.PreTokenBalances {
		if tb.AccountIndex == post.AccountIndex && tb.Mint == post.Mint {
			pre = tb.Amount
			break
		}
	}

	expected, err := domain.ToBaseUnits(want.Amount, post.Decimals)
	if err != nil {
		return err
	}
	if post.Amount < pre || post.Amount-pre != expected {
		return fmt.Errorf("%w: recipient received %s, expected %s",
			domain.ErrTransferMismatch, signedDelta(pre, post.Amount, post.Decimals), want.Amount)
	}
	return nil
}

func signedDelta(pre, post uint64, decimals uint8) string {
	if post >= pre {
		return domain.FromBaseUnits(post-pre, decimals).String()
	}
	return "-" + domain.FromBaseUnits(pre-post, decimals).String()
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
