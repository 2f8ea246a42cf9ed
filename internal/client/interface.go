package client

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Ledger is the view of the Solana network the session wallet core depends
// on: read balances, anchor a transaction to a recent blockhash, submit and
// confirm. Implemented by SolanaClient; tests substitute recording fakes.
//
// Contract: every call is at-least-confirmed-or-error. A nil error from
// SubmitAndConfirm or ConfirmSignature means the transaction reached
// confirmed finality.
type Ledger interface {
	// NativeBalance returns the owner's balance in lamports.
	NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)

	// TokenBalance returns the owner's balance for mint in smallest units.
	// A missing associated token account reads as zero: un-provisioned is a
	// normal pre-deposit state, not an error.
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error)

	// TokenAccountExists reports whether the owner's associated token
	// account for mint has been provisioned.
	TokenAccountExists(ctx context.Context, owner, mint solana.PublicKey) (bool, error)

	// RentExemptMinimum returns the lamports an account of size bytes must
	// hold to be rent exempt. Creating a token account charges this to the
	// fee payer on top of the network fee.
	RentExemptMinimum(ctx context.Context, size uint64) (uint64, error)

	// LatestBlockhash returns a recent blockhash to anchor a transaction.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)

	// Submit broadcasts a fully signed transaction without waiting for it to
	// land. Callers that need finality follow up with ConfirmSignature.
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// SubmitAndConfirm broadcasts a fully signed transaction and waits for
	// confirmed finality.
	SubmitAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// ConfirmSignature waits for an already-broadcast signature (e.g. one
	// sent by an external signer) to reach confirmed finality.
	ConfirmSignature(ctx context.Context, sig solana.Signature) error

	// Transactions lists recent transfers touching the owner: SOL movements
	// on the owner account and, when mint is set, token movements on its
	// associated token account. Newest first is not guaranteed; callers sort.
	Transactions(ctx context.Context, owner solana.PublicKey, mint *solana.PublicKey, limit int) ([]HistoryEntry, error)
}
