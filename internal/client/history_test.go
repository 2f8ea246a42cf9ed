package client

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fetchedTransfer wraps a locally signed transfer in the envelope a
// GetTransaction call returns, with the given balance metadata attached.
func fetchedTransfer(t *testing.T, from solana.PrivateKey, to solana.PublicKey, lamports uint64, meta *rpc.TransactionMeta) *rpc.GetTransactionResult {
	t.Helper()

	tx, err := BuildTransaction(
		[]solana.Instruction{
			NativeTransferInstruction(lamports, from.PublicKey(), to),
		},
		solana.Hash{1},
		from.PublicKey(),
	)
	require.NoError(t, err)

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from
		}
		return nil
	})
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	encoded, err := json.Marshal([]any{base64.StdEncoding.EncodeToString(raw), "base64"})
	require.NoError(t, err)

	var env rpc.TransactionResultEnvelope
	require.NoError(t, json.Unmarshal(encoded, &env))

	return &rpc.GetTransactionResult{
		Slot:        42,
		Transaction: &env,
		Meta:        meta,
	}
}

func tokenDelta(mint solana.PublicKey, owner solana.PublicKey, amount string) rpc.TokenBalance {
	return rpc.TokenBalance{
		Mint:  mint,
		Owner: &owner,
		UiTokenAmount: &rpc.UiTokenAmount{
			Amount: amount,
		},
	}
}

func TestClassifyTransaction_DepositLanding(t *testing.T) {
	primary := solana.NewWallet().PrivateKey
	owner := solana.NewWallet().PublicKey()
	sig := solana.Signature{7}

	// account order: primary (fee payer), owner, system program
	res := fetchedTransfer(t, primary, owner, 1_000_000, &rpc.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{10_000_000, 0, 1},
		PostBalances: []uint64{8_995_000, 1_000_000, 1},
	})

	entries := classifyTransaction(owner, nil, sig, res)
	require.Len(t, entries, 1)
	entry := entries[0]

	assert.Equal(t, "DEBIT", entry.Type)
	assert.Equal(t, sig.String(), entry.TxID)
	assert.Equal(t, primary.PublicKey().String(), entry.From)
	assert.Equal(t, owner.String(), entry.To)
	assert.Equal(t, "0.001000000", entry.Amount)
	assert.Equal(t, "SOL", entry.Currency)
	assert.Equal(t, "0", entry.FeeSOL, "the sender paid the fee")
	assert.Equal(t, int64(42), entry.Slot)
	assert.Equal(t, "success", entry.Status)
}

func TestClassifyTransaction_SweepLeaving(t *testing.T) {
	owner := solana.NewWallet().PrivateKey
	primary := solana.NewWallet().PublicKey()
	sig := solana.Signature{8}

	// the owner pays the fee, so the transfer amount excludes it
	res := fetchedTransfer(t, owner, primary, 995_000, &rpc.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{1_000_000, 0, 1},
		PostBalances: []uint64{0, 995_000, 1},
	})

	entries := classifyTransaction(owner.PublicKey(), nil, sig, res)
	require.Len(t, entries, 1)
	entry := entries[0]

	assert.Equal(t, "CREDIT", entry.Type)
	assert.Equal(t, owner.PublicKey().String(), entry.From)
	assert.Equal(t, primary.String(), entry.To)
	assert.Equal(t, "0.000995000", entry.Amount)
	assert.Equal(t, "0.000005000", entry.FeeSOL)
}

func TestClassifyTransaction_FeeOnlyIsNotATransfer(t *testing.T) {
	owner := solana.NewWallet().PrivateKey
	other := solana.NewWallet().PublicKey()

	res := fetchedTransfer(t, owner, other, 0, &rpc.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{1_000_000, 0, 1},
		PostBalances: []uint64{995_000, 0, 1},
	})

	assert.Empty(t, classifyTransaction(owner.PublicKey(), nil, solana.Signature{9}, res))
}

func TestClassifyTransaction_TokenSettlement(t *testing.T) {
	owner := solana.NewWallet().PrivateKey
	platform := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	sig := solana.Signature{10}

	// the owner's SOL only moves by the fee; the transfer itself is USDC
	res := fetchedTransfer(t, owner, platform, 0, &rpc.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{1_000_000, 0, 1},
		PostBalances: []uint64{995_000, 0, 1},
		PreTokenBalances: []rpc.TokenBalance{
			tokenDelta(mint, owner.PublicKey(), "5000000"),
			tokenDelta(mint, platform, "0"),
		},
		PostTokenBalances: []rpc.TokenBalance{
			tokenDelta(mint, owner.PublicKey(), "3000000"),
			tokenDelta(mint, platform, "2000000"),
		},
	})

	entries := classifyTransaction(owner.PublicKey(), &mint, sig, res)
	require.Len(t, entries, 1)
	entry := entries[0]

	assert.Equal(t, "CREDIT", entry.Type)
	assert.Equal(t, owner.PublicKey().String(), entry.From)
	assert.Equal(t, platform.String(), entry.To)
	assert.Equal(t, "2.000000", entry.Amount)
	assert.Equal(t, "USDC", entry.Currency)
	assert.Equal(t, "0.000005000", entry.FeeSOL, "the SOL change is the fee, not a transfer")
}

func TestClassifyTransaction_TokenDepositHasNoFee(t *testing.T) {
	primary := solana.NewWallet().PrivateKey
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	res := fetchedTransfer(t, primary, owner, 0, &rpc.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{1_000_000, 0, 1},
		PostBalances: []uint64{995_000, 0, 1},
		PreTokenBalances: []rpc.TokenBalance{
			tokenDelta(mint, primary.PublicKey(), "5000000"),
			tokenDelta(mint, owner, "0"),
		},
		PostTokenBalances: []rpc.TokenBalance{
			tokenDelta(mint, primary.PublicKey(), "3000000"),
			tokenDelta(mint, owner, "2000000"),
		},
	})

	entries := classifyTransaction(owner, &mint, solana.Signature{11}, res)
	require.Len(t, entries, 1)

	assert.Equal(t, "DEBIT", entries[0].Type)
	assert.Equal(t, primary.PublicKey().String(), entries[0].From)
	assert.Equal(t, "0", entries[0].FeeSOL)
}

func TestClassifyTransaction_FailedStatus(t *testing.T) {
	primary := solana.NewWallet().PrivateKey
	owner := solana.NewWallet().PublicKey()

	res := fetchedTransfer(t, primary, owner, 1_000_000, &rpc.TransactionMeta{
		Err:          map[string]any{"InstructionError": []any{0, "Custom"}},
		Fee:          5000,
		PreBalances:  []uint64{10_000_000, 0, 1},
		PostBalances: []uint64{8_995_000, 1_000_000, 1},
	})

	entries := classifyTransaction(owner, nil, solana.Signature{12}, res)
	require.Len(t, entries, 1)
	assert.Equal(t, "failed", entries[0].Status)
}

func TestClassifyTransaction_MissingMeta(t *testing.T) {
	assert.Empty(t, classifyTransaction(solana.NewWallet().PublicKey(), nil, solana.Signature{13}, &rpc.GetTransactionResult{}))
}
