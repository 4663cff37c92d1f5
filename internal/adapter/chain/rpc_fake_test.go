package chain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var errNotStubbed = errors.New("not stubbed")

// fakeRPC implements RPC with per-method hooks.
type fakeRPC struct {
	health          func() (string, error)
	blockhash       func() (*rpc.GetLatestBlockhashResult, error)
	accountInfo     func(solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	signatures      func(solana.PublicKey) ([]*rpc.TransactionSignature, error)
	transaction     func(solana.Signature) (*rpc.GetTransactionResult, error)
	statuses        func(solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	send            func(*solana.Transaction) (solana.Signature, error)
	blockhashCalls  int
	accountCalls    int
	statusCalls     int
	lastCommitments []rpc.CommitmentType
}

func (f *fakeRPC) GetHealth(context.Context) (string, error) {
	if f.health == nil {
		return rpc.HealthOk, nil
	}
	return f.health()
}

func (f *fakeRPC) GetLatestBlockhash(_ context.Context, c rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	f.blockhashCalls++
	f.lastCommitments = append(f.lastCommitments, c)
	if f.blockhash == nil {
		return nil, errNotStubbed
	}
	return f.blockhash()
}

func (f *fakeRPC) GetAccountInfoWithOpts(_ context.Context, pk solana.PublicKey, _ *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	f.accountCalls++
	if f.accountInfo == nil {
		return nil, errNotStubbed
	}
	return f.accountInfo(pk)
}

func (f *fakeRPC) GetSignaturesForAddressWithOpts(_ context.Context, pk solana.PublicKey, _ *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
	if f.signatures == nil {
		return nil, errNotStubbed
	}
	return f.signatures(pk)
}

func (f *fakeRPC) GetTransaction(_ context.Context, sig solana.Signature, _ *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	if f.transaction == nil {
		return nil, errNotStubbed
	}
	return f.transaction(sig)
}

func (f *fakeRPC) GetSignatureStatuses(_ context.Context, _ bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.statusCalls++
	if f.statuses == nil {
		return nil, errNotStubbed
	}
	return f.statuses(sigs[0])
}

func (f *fakeRPC) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ rpc.TransactionOpts) (solana.Signature, error) {
	if f.send == nil {
		return solana.Signature{}, errNotStubbed
	}
	return f.send(tx)
}

func staticClient(r RPC) func(context.Context) RPC {
	return func(context.Context) RPC { return r }
}
