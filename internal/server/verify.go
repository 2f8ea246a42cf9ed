package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// Verifier decides whether a settlement proof authorizes the protected
// action. Matching recipient and amount is mandatory. Replay of an already
// used signature is not detected yet; that needs a persistent seen-signature
// set.
type Verifier interface {
	VerifyPayment(ctx context.Context, signature string, recipient solana.PublicKey, token string, amount uint64) error
}

// RPCVerifier verifies proofs by fetching the referenced transaction from the
// ledger and inspecting it.
type RPCVerifier struct {
	rpcClient *rpc.Client
}

var _ Verifier = (*RPCVerifier)(nil)

// NewRPCVerifier creates a verifier against the given RPC endpoint.
func NewRPCVerifier(rpcURL string) *RPCVerifier {
	return &RPCVerifier{rpcClient: rpc.New(rpcURL)}
}

// VerifyPayment checks that the signature references a confirmed, error-free
// transaction that moved at least amount of the expected asset to recipient.
func (v *RPCVerifier) VerifyPayment(ctx context.Context, signature string, recipient solana.PublicKey, token string, amount uint64) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid proof signature: %w", err)
	}

	maxVersion := uint64(0)
	txRes, err := v.rpcClient.GetTransaction(
		ctx,
		sig,
		&rpc.GetTransactionOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			Encoding:                       solana.EncodingBase64,
			MaxSupportedTransactionVersion: &maxVersion,
		},
	)
	if err != nil {
		return fmt.Errorf("transaction not found: %w", err)
	}

	return verifyResult(txRes, recipient, token, amount)
}

// verifyResult inspects a fetched transaction and decides whether it settles
// the expected payment.
func verifyResult(txRes *rpc.GetTransactionResult, recipient solana.PublicKey, token string, amount uint64) error {
	if txRes == nil {
		return errors.New("transaction not found")
	}
	if txRes.Meta != nil && txRes.Meta.Err != nil {
		return errors.New("transaction failed on ledger")
	}

	if token == "SOL" || token == "native" {
		return verifyNativeTransfer(txRes, recipient, amount)
	}
	return verifyTokenTransfer(txRes, recipient, token, amount)
}

// verifyNativeTransfer decodes the transaction's instructions and requires a
// system transfer of at least amount to recipient.
func verifyNativeTransfer(txRes *rpc.GetTransactionResult, recipient solana.PublicKey, amount uint64) error {
	tx, err := txRes.Transaction.GetTransaction()
	if err != nil {
		return fmt.Errorf("failed to decode transaction: %w", err)
	}

	for _, inst := range tx.Message.Instructions {
		prog := tx.Message.AccountKeys[inst.ProgramIDIndex]
		if !prog.Equals(solana.SystemProgramID) {
			continue
		}

		accountMetas := make([]*solana.AccountMeta, len(inst.Accounts))
		for i, accIdx := range inst.Accounts {
			pub := tx.Message.AccountKeys[accIdx]
			writable, err := tx.Message.IsWritable(pub)
			if err != nil {
				return fmt.Errorf("failed to decode transaction: %w", err)
			}
			accountMetas[i] = &solana.AccountMeta{
				PublicKey:  pub,
				IsSigner:   tx.Message.IsSigner(pub),
				IsWritable: writable,
			}
		}

		sysInst, err := system.DecodeInstruction(accountMetas, inst.Data)
		if err != nil {
			continue
		}
		transfer, ok := sysInst.Impl.(*system.Transfer)
		if !ok || transfer.Lamports == nil {
			continue
		}
		if len(accountMetas) < 2 || !accountMetas[1].PublicKey.Equals(recipient) {
			continue
		}
		if *transfer.Lamports >= amount {
			return nil
		}
		return fmt.Errorf("transfer amount %d below required %d", *transfer.Lamports, amount)
	}

	return errors.New("no matching transfer to platform wallet")
}

// verifyTokenTransfer checks the recipient's token balance delta for the
// expected mint across the transaction.
func verifyTokenTransfer(txRes *rpc.GetTransactionResult, recipient solana.PublicKey, token string, amount uint64) error {
	mint, err := solana.PublicKeyFromBase58(token)
	if err != nil {
		return fmt.Errorf("invalid asset identifier: %w", err)
	}
	if txRes.Meta == nil {
		return errors.New("transaction has no balance metadata")
	}

	var delta int64
	for _, pre := range txRes.Meta.PreTokenBalances {
		if pre.Mint.Equals(mint) && pre.Owner != nil && pre.Owner.Equals(recipient) {
			amt, _ := strconv.ParseUint(pre.UiTokenAmount.Amount, 10, 64)
			delta -= int64(amt)
		}
	}
	for _, post := range txRes.Meta.PostTokenBalances {
		if post.Mint.Equals(mint) && post.Owner != nil && post.Owner.Equals(recipient) {
			amt, _ := strconv.ParseUint(post.UiTokenAmount.Amount, 10, 64)
			delta += int64(amt)
		}
	}

	if delta < int64(amount) {
		return fmt.Errorf("token credit %d below required %d", delta, amount)
	}
	return nil
}
