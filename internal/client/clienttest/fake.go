// Package clienttest provides an in-memory Ledger for tests.
package clienttest

import (
	"context"
	"sync"

	"github.com/VDuda/arcade-sol/internal/client"

	"github.com/gagliardetto/solana-go"
)

// FakeLedger is a recording, in-memory client.Ledger. Balances and account
// existence are seeded directly on the maps; submitted transactions and
// confirmed signatures are captured for inspection.
type FakeLedger struct {
	mu sync.Mutex

	Native    map[solana.PublicKey]uint64
	Token     map[string]uint64 // key: owner|mint
	Accounts  map[string]bool   // key: owner|mint
	Blockhash solana.Hash
	SubmitSig solana.Signature
	Rent      uint64 // rent-exempt minimum for any size
	History   []client.HistoryEntry

	NativeErr  error
	TokenErr   error
	SubmitErr  error
	ConfirmErr error
	HistoryErr error

	Submitted []*solana.Transaction
	Confirmed []solana.Signature
}

var _ client.Ledger = (*FakeLedger)(nil)

// NewFakeLedger returns an empty fake with a non-zero blockhash.
func NewFakeLedger() *FakeLedger {
	var hash solana.Hash
	hash[0] = 1
	return &FakeLedger{
		Native:    make(map[solana.PublicKey]uint64),
		Token:     make(map[string]uint64),
		Accounts:  make(map[string]bool),
		Blockhash: hash,
		SubmitSig: solana.Signature{1, 2, 3},
		Rent:      2_039_280, // mainnet rent-exempt minimum for a token account
	}
}

func key(owner, mint solana.PublicKey) string {
	return owner.String() + "|" + mint.String()
}

// SetToken seeds a token balance and marks the account as provisioned.
func (f *FakeLedger) SetToken(owner, mint solana.PublicKey, amount uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Token[key(owner, mint)] = amount
	f.Accounts[key(owner, mint)] = true
}

func (f *FakeLedger) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NativeErr != nil {
		return 0, f.NativeErr
	}
	return f.Native[owner], nil
}

func (f *FakeLedger) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TokenErr != nil {
		return 0, f.TokenErr
	}
	return f.Token[key(owner, mint)], nil
}

func (f *FakeLedger) TokenAccountExists(ctx context.Context, owner, mint solana.PublicKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Accounts[key(owner, mint)], nil
}

func (f *FakeLedger) RentExemptMinimum(ctx context.Context, size uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Rent, nil
}

func (f *FakeLedger) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return f.Blockhash, nil
}

func (f *FakeLedger) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmitErr != nil {
		return solana.Signature{}, f.SubmitErr
	}
	f.Submitted = append(f.Submitted, tx)
	return f.SubmitSig, nil
}

func (f *FakeLedger) SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := f.Submit(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := f.ConfirmSignature(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (f *FakeLedger) Transactions(ctx context.Context, owner solana.PublicKey, mint *solana.PublicKey, limit int) ([]client.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HistoryErr != nil {
		return nil, f.HistoryErr
	}
	return f.History, nil
}

func (f *FakeLedger) ConfirmSignature(ctx context.Context, sig solana.Signature) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ConfirmErr != nil {
		return f.ConfirmErr
	}
	f.Confirmed = append(f.Confirmed, sig)
	return nil
}
