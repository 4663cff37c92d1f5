package chain

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	// Token2022ProgramID is the token-extensions program. A mint is owned by
	// exactly one of it and solana.TokenProgramID.
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	MemoProgramID      = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
)

const (
	tokenIxTransferChecked uint8 = 12
	ataIxCreateIdempotent  uint8 = 1

	mintDecimalsOffset = 44
	mintAccountMinLen  = 82
)

// tokenProgramFor picks the program owning a mint, defaulting to the classic
// token program when the owner is unknown.
func tokenProgramFor(owner string) solana.PublicKey {
	if owner == Token2022ProgramID.String() {
		return Token2022ProgramID
	}
	return solana.TokenProgramID
}

// mintDecimals reads the decimals byte from raw mint account data. Token-2022
// mints share the base layout, so the offset holds for both programs.
func mintDecimals(data []byte) (uint8, error) {
	if len(data) < mintAccountMinLen {
		return 0, fmt.Errorf("mint account data too short: %d bytes", len(data))
	}
	return data[mintDecimalsOffset], nil
}

// associatedTokenAddress derives the canonical token account of owner for mint
// under the given token program.
func associatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{owner[:], tokenProgram[:], mint[:]},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("deriving associated token address: %w", err)
	}
	return addr, nil
}

func newCreateATAIdempotentInstruction(payer, ata, owner, mint, tokenProgram solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(payer, true, true),
			solana.NewAccountMeta(ata, true, false),
			solana.NewAccountMeta(owner, false, false),
			solana.NewAccountMeta(mint, false, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
			solana.NewAccountMeta(tokenProgram, false, false),
		},
		[]byte{ataIxCreateIdempotent},
	)
}

func newTransferCheckedInstruction(
	tokenProgram, source, mint, destination, owner solana.PublicKey,
	amount uint64, decimals uint8, extra ...*solana.AccountMeta,
) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUint8(tokenIxTransferChecked); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(amount, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(decimals); err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(source, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(owner, false, true),
	}
	accounts = append(accounts, extra...)
	return solana.NewInstruction(tokenProgram, accounts, buf.Bytes()), nil
}

func newMemoInstruction(memo string) solana.Instruction {
	return solana.NewInstruction(MemoProgramID, solana.AccountMetaSlice{}, []byte(memo))
}
