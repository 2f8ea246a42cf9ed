package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/VDuda/arcade-sol/internal/common"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// HistoryEntry is one observed transfer touching the session identity:
// a deposit landing, a sweep leaving, or a challenge settlement.
type HistoryEntry struct {
	Type      string // "DEBIT" (received) or "CREDIT" (sent)
	TxID      string
	From      string
	To        string
	Amount    string
	Currency  string // "USDC" or "SOL"
	FeeSOL    string // SOL the owner paid as fee, "0" when someone else paid
	Timestamp time.Time
	Slot      int64
	Status    string
}

// Transactions lists recent transfers for the owner. Signatures are collected
// from both the owner account and, when mint is set, its associated token
// account, then each transaction is fetched and classified.
func (c *SolanaClient) Transactions(ctx context.Context, owner solana.PublicKey, mint *solana.PublicKey, limit int) ([]HistoryEntry, error) {
	signatureSet := make(map[string]bool)

	sigs, err := c.rpcClient.GetSignaturesForAddressWithOpts(
		ctx,
		owner,
		&rpc.GetSignaturesForAddressOpts{
			Limit: &limit,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	for _, sig := range sigs {
		signatureSet[sig.Signature.String()] = true
	}

	if mint != nil {
		ataAddress, _, err := solana.FindAssociatedTokenAddress(owner, *mint)
		if err != nil {
			return nil, fmt.Errorf("failed to find associated token account address: %w", err)
		}

		ataSigs, err := c.rpcClient.GetSignaturesForAddressWithOpts(
			ctx,
			ataAddress,
			&rpc.GetSignaturesForAddressOpts{
				Limit: &limit,
			},
		)
		if err != nil && !isAccountNotFoundError(err) {
			return nil, fmt.Errorf("failed to list token account signatures: %w", err)
		}
		for _, sig := range ataSigs {
			signatureSet[sig.Signature.String()] = true
		}
	}

	entries := make([]HistoryEntry, 0, len(signatureSet))

	for sigStr := range signatureSet {
		sig, err := solana.SignatureFromBase58(sigStr)
		if err != nil {
			return nil, err
		}

		// maxVersion is hardcoded - no point making it configurable because
		// new version support requires a library update and rebuild anyway
		maxVersion := uint64(0)
		tx, err := c.rpcClient.GetTransaction(
			ctx,
			sig,
			&rpc.GetTransactionOpts{
				Commitment:                     rpc.CommitmentConfirmed,
				Encoding:                       solana.EncodingBase64,
				MaxSupportedTransactionVersion: &maxVersion,
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transaction %s: %w", sig, err)
		}

		entries = append(entries, classifyTransaction(owner, mint, sig, tx)...)
	}

	return entries, nil
}

// classifyTransaction extracts the owner-relevant transfer from one fetched
// transaction. If a token movement for mint exists, any SOL change is treated
// as fee; otherwise the SOL change itself is the transfer.
func classifyTransaction(owner solana.PublicKey, mint *solana.PublicKey, signature solana.Signature, tx *rpc.GetTransactionResult) []HistoryEntry {
	if tx == nil || tx.Meta == nil {
		return nil
	}

	ownerStr := owner.String()

	timestamp := time.Now()
	if tx.BlockTime != nil {
		timestamp = time.Unix(int64(*tx.BlockTime), 0)
	}

	status := "success"
	if tx.Meta.Err != nil {
		status = "failed"
	}

	decodedTx, err := tx.Transaction.GetTransaction()
	if err != nil {
		return nil
	}

	var ownerSOLDelta int64
	accountKeys := decodedTx.Message.AccountKeys
	for i, key := range accountKeys {
		if key.Equals(owner) {
			preBal := tx.Meta.PreBalances[i]
			postBal := tx.Meta.PostBalances[i]
			if postBal >= preBal {
				ownerSOLDelta = int64(postBal - preBal)
			} else {
				ownerSOLDelta = -int64(preBal - postBal)
			}
			break
		}
	}

	if mint != nil {
		tokenDeltas := make(map[string]int64)

		for _, pre := range tx.Meta.PreTokenBalances {
			if pre.Mint.Equals(*mint) && pre.Owner != nil {
				amt, _ := strconv.ParseUint(pre.UiTokenAmount.Amount, 10, 64)
				tokenDeltas[pre.Owner.String()] -= int64(amt)
			}
		}
		for _, post := range tx.Meta.PostTokenBalances {
			if post.Mint.Equals(*mint) && post.Owner != nil {
				amt, _ := strconv.ParseUint(post.UiTokenAmount.Amount, 10, 64)
				tokenDeltas[post.Owner.String()] += int64(amt)
			}
		}

		if delta := tokenDeltas[ownerStr]; delta != 0 {
			return []HistoryEntry{tokenEntry(ownerStr, ownerSOLDelta, delta, tokenDeltas, signature, timestamp, int64(tx.Slot), status)}
		}
	}

	return nativeEntry(owner, ownerSOLDelta, decodedTx, tx.Meta, signature, timestamp, int64(tx.Slot), status)
}

// tokenEntry builds the entry for a token movement; the owner's SOL delta is
// the fee when the owner sent the transfer.
func tokenEntry(ownerStr string, ownerSOLDelta, delta int64, tokenDeltas map[string]int64, signature solana.Signature, timestamp time.Time, slot int64, status string) HistoryEntry {
	var from, to, entryType string
	var amount uint64

	if delta > 0 {
		entryType = "DEBIT"
		amount = uint64(delta)
		to = ownerStr
		for other, d := range tokenDeltas {
			if d < 0 {
				from = other
				break
			}
		}
	} else {
		entryType = "CREDIT"
		amount = uint64(-delta)
		from = ownerStr
		for other, d := range tokenDeltas {
			if d > 0 {
				to = other
				break
			}
		}
	}

	feeStr := "0"
	if entryType == "CREDIT" && ownerSOLDelta < 0 {
		feeStr = common.FormatSOL(uint64(-ownerSOLDelta))
	}

	return HistoryEntry{
		Type:      entryType,
		TxID:      signature.String(),
		From:      from,
		To:        to,
		Amount:    common.FormatUSDC(amount),
		Currency:  "USDC",
		FeeSOL:    feeStr,
		Timestamp: timestamp,
		Slot:      slot,
		Status:    status,
	}
}

// nativeEntry builds the entry for a pure SOL movement, separating the
// network fee from the transfer amount when the owner paid it.
func nativeEntry(owner solana.PublicKey, ownerSOLDelta int64, decodedTx *solana.Transaction, meta *rpc.TransactionMeta, signature solana.Signature, timestamp time.Time, slot int64, status string) []HistoryEntry {
	if ownerSOLDelta == 0 {
		return nil
	}

	ownerStr := owner.String()
	accountKeys := decodedTx.Message.AccountKeys

	ownerIndex := -1
	for i, key := range accountKeys {
		if key.Equals(owner) {
			ownerIndex = i
			break
		}
	}

	// fee payer is index 0
	isFeePayer := ownerIndex == 0
	actualDelta := ownerSOLDelta
	if isFeePayer {
		actualDelta = ownerSOLDelta + int64(meta.Fee)
	}

	// a fee-only transaction is not a transfer
	if actualDelta == 0 {
		return nil
	}

	var from, to, entryType string
	var amount uint64

	if actualDelta > 0 {
		entryType = "DEBIT"
		amount = uint64(actualDelta)
		to = ownerStr
		for i, key := range accountKeys {
			if meta.PreBalances[i] > meta.PostBalances[i] && !key.Equals(owner) {
				from = key.String()
				break
			}
		}
	} else {
		entryType = "CREDIT"
		amount = uint64(-actualDelta)
		from = ownerStr
		for i, key := range accountKeys {
			if meta.PostBalances[i] > meta.PreBalances[i] && !key.Equals(owner) {
				to = key.String()
				break
			}
		}
	}

	feeStr := "0"
	if entryType == "CREDIT" && isFeePayer {
		feeStr = common.FormatSOL(meta.Fee)
	}

	return []HistoryEntry{{
		Type:      entryType,
		TxID:      signature.String(),
		From:      from,
		To:        to,
		Amount:    common.FormatSOL(amount),
		Currency:  "SOL",
		FeeSOL:    feeStr,
		Timestamp: timestamp,
		Slot:      slot,
		Status:    status,
	}}
}
