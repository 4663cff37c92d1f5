package chain

import (
	"context"
	"fmt"

	"solana-payment-gateway/internal/core/domain"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountReader is the part of the ledger the builder needs.
type AccountReader interface {
	LatestBlockhash(ctx context.Context) (string, error)
	AccountInfo(ctx context.Context, address string) (*domain.AccountInfo, error)
}

// TransactionBuilder implements ports.TransactionBuilder for native SOL and
// SPL token transfers.
type TransactionBuilder struct {
	reader AccountReader
	log    zerolog.Logger
}

// NewTransactionBuilder creates a new TransactionBuilder.
func NewTransactionBuilder(reader AccountReader, log zerolog.Logger) *TransactionBuilder {
	return &TransactionBuilder{reader: reader, log: log}
}

// Build returns the serialized transfer with zeroed signature slots. The
// reference is attached to the transfer instruction as a read-only key.
func (b *TransactionBuilder) Build(ctx context.Context, intent domain.TransferIntent) ([]byte, error) {
	amount, err := domain.ParseAmount(intent.Amount)
	if err != nil {
		return nil, err
	}
	payer, err := solana.PublicKeyFromBase58(intent.Payer)
	if err != nil {
		return nil, fmt.Errorf("invalid payer %q: %w", intent.Payer, err)
	}
	recipient, err := solana.PublicKeyFromBase58(intent.Recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", intent.Recipient, err)
	}

	var instructions []solana.Instruction
	if intent.Memo != "" {
		instructions = append(instructions, newMemoInstruction(intent.Memo))
	}

	var transfer []solana.Instruction
	if intent.Currency.IsNative() {
		transfer, err = b.nativeTransfer(payer, recipient, amount, intent.Reference)
	} else {
		transfer, err = b.tokenTransfer(ctx, payer, recipient, intent.Currency.Mint, amount, intent.Reference)
	}
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, transfer...)

	blockhash, err := b.reader.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching latest blockhash: %w", err)
	}
	hash, err := solana.HashFromBase58(blockhash)
	if err != nil {
		return nil, fmt.Errorf("invalid blockhash %q: %w", blockhash, err)
	}

	tx, err := solana.NewTransaction(instructions, hash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("assembling transaction: %w", err)
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serializing transaction: %w", err)
	}

	b.log.Debug().
		Str("payer", payer.String()).
		Str("currency", intent.Currency.Code()).
		Str("reference", intent.Reference.String()).
		Int("instructions", len(instructions)).
		Msg("transfer built")
	return raw, nil
}

func (b *TransactionBuilder) nativeTransfer(payer, recipient solana.PublicKey, amount decimal.Decimal, ref domain.Reference) ([]solana.Instruction, error) {
	lamports, err := domain.ToBaseUnits(amount, domain.NativeDecimals)
	if err != nil {
		return nil, err
	}

	ix := system.NewTransferInstruction(lamports, payer, recipient)
	if !ref.IsZero() {
		ix.AccountMetaSlice = append(ix.AccountMetaSlice, solana.NewAccountMeta(solana.PublicKey(ref), false, false))
	}
	return []solana.Instruction{ix.Build()}, nil
}

func (b *TransactionBuilder) tokenTransfer(
	ctx context.Context,
	payer, recipient solana.PublicKey,
	mintAddr string,
	amount decimal.Decimal,
	ref domain.Reference,
) ([]solana.Instruction, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid mint %q: %w", mintAddr, err)
	}

	mintInfo, err := b.reader.AccountInfo(ctx, mint.String())
	if err != nil {
		return nil, fmt.Errorf("fetching mint %s: %w", mint, err)
	}
	if mintInfo == nil {
		return nil, fmt.Errorf("mint %s not found", mint)
	}
	program := tokenProgramFor(mintInfo.Owner)
	decimals, err := mintDecimals(mintInfo.Data)
	if err != nil {
		return nil, fmt.Errorf("reading mint %s: %w", mint, err)
	}

	source, err := associatedTokenAddress(payer, mint, program)
	if err != nil {
		return nil, err
	}
	destination, err := associatedTokenAddress(recipient, mint, program)
	if err != nil {
		return nil, err
	}

	var out []solana.Instruction
	destInfo, err := b.reader.AccountInfo(ctx, destination.String())
	if err != nil {
		return nil, fmt.Errorf("fetching destination token account %s: %w", destination, err)
	}
	if destInfo == nil {
		out = append(out, newCreateATAIdempotentInstruction(payer, destination, recipient, mint, program))
	}

	raw, err := domain.ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}

	var extra []*solana.AccountMeta
	if !ref.IsZero() {
		extra = append(extra, solana.NewAccountMeta(solana.PublicKey(ref), false, false))
	}
	transfer, err := newTransferCheckedInstruction(program, source, mint, destination, payer, raw, decimals, extra...)
	if err != nil {
		return nil, fmt.Errorf("encoding transfer: %w", err)
	}
	return append(out, transfer), nil
}
