package chain

import (
	"context"
	"fmt"

	"solana-payment-gateway/internal/core/domain"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

// KeypairWallet implements ports.WalletSigner with locally held payer keys.
// Wallets are reported in configuration order.
type KeypairWallet struct {
	keys       []solana.PrivateKey
	client     func(ctx context.Context) RPC
	commitment rpc.CommitmentType
	log        zerolog.Logger
}

// NewKeypairWallet decodes base58 private keys. An empty list yields a signer
// with no connected wallets.
func NewKeypairWallet(conn *Connection, encodedKeys []string, commitment string, log zerolog.Logger) (*KeypairWallet, error) {
	keys := make([]solana.PrivateKey, 0, len(encodedKeys))
	for i, enc := range encodedKeys {
		key, err := solana.PrivateKeyFromBase58(enc)
		if err != nil {
			return nil, fmt.Errorf("wallet key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return &KeypairWallet{
		keys:       keys,
		client:     conn.Client,
		commitment: parseCommitment(commitment),
		log:        log,
	}, nil
}

// Wallets returns the connected payer addresses.
func (w *KeypairWallet) Wallets(_ context.Context) ([]domain.Wallet, error) {
	out := make([]domain.Wallet, 0, len(w.keys))
	for _, k := range w.keys {
		out = append(out, domain.Wallet{Address: k.PublicKey().String()})
	}
	return out, nil
}

// SignAndSend signs the serialized transaction as wallet, broadcasts it and
// returns the raw 64-byte signature.
func (w *KeypairWallet) SignAndSend(ctx context.Context, wallet domain.Wallet, raw []byte) ([]byte, error) {
	key, ok := w.key(wallet.Address)
	if !ok {
		return nil, fmt.Errorf("wallet %s is not connected", wallet.Address)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding transaction: %w", err)
	}

	// Sign appends, so drop the placeholder slots first.
	tx.Signatures = nil
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	sig, err := w.client(ctx).SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: w.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("sending transaction: %w", err)
	}

	w.log.Info().Str("wallet", wallet.Address).Str("signature", sig.String()).Msg("transaction broadcast")
	out := make([]byte, len(sig))
	copy(out, sig[:])
	return out, nil
}

func (w *KeypairWallet) key(address string) (solana.PrivateKey, bool) {
	for _, k := range w.keys {
		if k.PublicKey().String() == address {
			return k, true
		}
	}
	return nil, false
}
