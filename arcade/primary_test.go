package arcade

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/client/clienttest"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrimaryKeyFile(t *testing.T, key solana.PrivateKey) string {
	t.Helper()
	raw := make([]int, len(key))
	for i, b := range key {
		raw[i] = int(b)
	}
	encoded, err := json.Marshal(raw)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "primary.json")
	require.NoError(t, os.WriteFile(path, encoded, 0o600))
	return path
}

func TestFilePrimarySigner_SignAndSendBroadcastsOnly(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	ledger := clienttest.NewFakeLedger()

	signer, err := LoadFilePrimarySigner(writePrimaryKeyFile(t, key), ledger)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), signer.PublicKey())

	tx, err := client.BuildTransaction(
		[]solana.Instruction{
			client.NativeTransferInstruction(1000, key.PublicKey(), solana.NewWallet().PublicKey()),
		},
		ledger.Blockhash,
		key.PublicKey(),
	)
	require.NoError(t, err)

	_, err = signer.SignAndSend(context.Background(), tx)
	require.NoError(t, err)

	require.Len(t, ledger.Submitted, 1)
	require.NoError(t, ledger.Submitted[0].VerifySignatures())
	// confirmation belongs to the deposit flow; a second wait here would
	// double the settlement latency
	assert.Empty(t, ledger.Confirmed)
}

func TestLoadFilePrimarySigner_MissingFile(t *testing.T) {
	_, err := LoadFilePrimarySigner(filepath.Join(t.TempDir(), "absent.json"), clienttest.NewFakeLedger())
	require.Error(t, err)
}
