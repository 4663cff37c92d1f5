package chain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"solana-payment-gateway/internal/core/domain"

	"github.com/avast/retry-go"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

const (
	readAttempts        = 3
	readRetryDelay      = 200 * time.Millisecond
	defaultConfirmEvery = 500 * time.Millisecond
)

var maxSupportedTxVersion uint64 = 0

// Ledger implements ports.Ledger on a Solana JSON-RPC node.
type Ledger struct {
	client       func(ctx context.Context) RPC
	commitment   rpc.CommitmentType
	confirmEvery time.Duration
	log          zerolog.Logger
}

// NewLedger creates a Ledger over a shared connection.
func NewLedger(conn *Connection, commitment string, log zerolog.Logger) *Ledger {
	return &Ledger{
		client:       conn.Client,
		commitment:   parseCommitment(commitment),
		confirmEvery: defaultConfirmEvery,
		log:          log,
	}
}

func parseCommitment(s string) rpc.CommitmentType {
	switch rpc.CommitmentType(s) {
	case rpc.CommitmentFinalized:
		return rpc.CommitmentFinalized
	case rpc.CommitmentProcessed:
		// signature lookups reject processed
		return rpc.CommitmentConfirmed
	default:
		return rpc.CommitmentConfirmed
	}
}

func (l *Ledger) read(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Attempts(readAttempts),
		retry.Delay(readRetryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, rpc.ErrNotFound) && !errors.Is(err, context.Canceled)
		}),
	)
}

// LatestBlockhash returns the latest finalized blockhash.
func (l *Ledger) LatestBlockhash(ctx context.Context) (string, error) {
	var out *rpc.GetLatestBlockhashResult
	err := l.read(ctx, func() (err error) {
		out, err = l.client(ctx).GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("getLatestBlockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return "", fmt.Errorf("getLatestBlockhash: empty result")
	}
	return out.Value.Blockhash.String(), nil
}

// AccountInfo returns nil, nil when the account does not exist.
func (l *Ledger) AccountInfo(ctx context.Context, address string) (*domain.AccountInfo, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	var out *rpc.GetAccountInfoResult
	err = l.read(ctx, func() (err error) {
		out, err = l.client(ctx).GetAccountInfoWithOpts(ctx, pk, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: l.commitment,
		})
		return err
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo %s: %w", address, err)
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}

	info := &domain.AccountInfo{
		Owner:    out.Value.Owner.String(),
		Lamports: out.Value.Lamports,
	}
	if out.Value.Data != nil {
		info.Data = out.Value.Data.GetBinary()
	}
	return info, nil
}

// FindReference returns the oldest signature referencing ref.
func (l *Ledger) FindReference(ctx context.Context, ref domain.Reference) (string, error) {
	sigs, err := l.client(ctx).GetSignaturesForAddressWithOpts(ctx, solana.PublicKey(ref), &rpc.GetSignaturesForAddressOpts{
		Commitment: l.commitment,
	})
	if err != nil {
		return "", fmt.Errorf("getSignaturesForAddress %s: %w", ref, err)
	}
	if len(sigs) == 0 {
		return "", domain.ErrReferenceNotFound
	}
	// newest first
	return sigs[len(sigs)-1].Signature.String(), nil
}

// ValidateTransfer fetches the transaction and checks it pays want exactly.
func (l *Ledger) ValidateTransfer(ctx context.Context, signature string, want domain.TransferExpectation) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	out, err := l.client(ctx).GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     l.commitment,
		MaxSupportedTransactionVersion: &maxSupportedTxVersion,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return domain.ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("getTransaction %s: %w", signature, err)
	}
	if out == nil || out.Meta == nil || out.Transaction == nil {
		return domain.ErrTransactionNotFound
	}

	view, err := newTransferView(out)
	if err != nil {
		return fmt.Errorf("decoding transaction %s: %w", signature, err)
	}
	return validateTransferView(view, want)
}

func newTransferView(out *rpc.GetTransactionResult) (transferView, error) {
	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return transferView{}, err
	}

	meta := out.Meta
	keys := make([]string, 0, len(tx.Message.AccountKeys)+len(meta.LoadedAddresses.Writable)+len(meta.LoadedAddresses.ReadOnly))
	for _, k := range tx.Message.AccountKeys {
		keys = append(keys, k.String())
	}
	for _, k := range meta.LoadedAddresses.Writable {
		keys = append(keys, k.String())
	}
	for _, k := range meta.LoadedAddresses.ReadOnly {
		keys = append(keys, k.String())
	}

	pre, err := convertTokenBalances(meta.PreTokenBalances)
	if err != nil {
		return transferView{}, err
	}
	post, err := convertTokenBalances(meta.PostTokenBalances)
	if err != nil {
		return transferView{}, err
	}

	return transferView{
		Err:               meta.Err,
		AccountKeys:       keys,
		PreBalances:       meta.PreBalances,
		PostBalances:      meta.PostBalances,
		PreTokenBalances:  pre,
		PostTokenBalances: post,
	}, nil
}

func convertTokenBalances(in []rpc.TokenBalance) ([]tokenBalance, error) {
	out := make([]tokenBalance, 0, len(in))
	for _, tb := range in {
		b := tokenBalance{
			AccountIndex: tb.AccountIndex,
			Mint:         tb.Mint.String(),
		}
		if tb.Owner != nil {
			b.Owner = tb.Owner.String()
		}
		if tb.UiTokenAmount != nil {
			amount, err := strconv.ParseUint(tb.UiTokenAmount.Amount, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("token balance amount %q: %w", tb.UiTokenAmount.Amount, err)
			}
			b.Amount = amount
			b.Decimals = tb.UiTokenAmount.Decimals
		}
		out = append(out, b)
	}
	return out, nil
}

// ConfirmTransaction polls the signature status until it reaches the
// configured commitment or fails on chain.
func (l *Ledger) ConfirmTransaction(ctx context.Context, signature string) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	ticker := time.NewTicker(l.confirmEvery)
	defer ticker.Stop()

	for {
		out, err := l.client(ctx).GetSignatureStatuses(ctx, true, sig)
		switch {
		case err != nil:
			l.log.Warn().Err(err).Str("signature", signature).Msg("signature status lookup failed, retrying")
		case out != nil && len(out.Value) > 0 && out.Value[0] != nil:
			st := out.Value[0]
			if st.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", signature, st.Err)
			}
			if l.reached(st.ConfirmationStatus) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirming %s: %w", signature, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Ledger) reached(status rpc.ConfirmationStatusType) bool {
	switch status {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return l.commitment != rpc.CommitmentFinalized
	default:
		return false
	}
}
