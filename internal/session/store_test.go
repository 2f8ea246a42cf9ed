package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")
	store := NewStore(path, nil)

	identity, err := store.Load()
	require.NoError(t, err)
	assert.False(t, identity.Address().IsZero())
	assert.NotEmpty(t, identity.QR())
	assert.NotEmpty(t, identity.CreatedAt())

	// persisted before Load returned
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoad_IsIdempotent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.key"), nil)

	first, err := store.Load()
	require.NoError(t, err)
	second, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, first.Address(), second.Address())
}

func TestLoad_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")

	first, err := NewStore(path, nil).Load()
	require.NoError(t, err)

	second, err := NewStore(path, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, first.Address(), second.Address(), "same file, same identity")
}

func TestLoad_ReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	identity, err := NewStore(path, nil).Load()
	require.NoError(t, err, "corrupt material fails over to a fresh identity")
	assert.False(t, identity.Address().IsZero())

	// and the replacement is durable
	again, err := NewStore(path, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, identity.Address(), again.Address())
}

func TestLoad_ReplacesTruncatedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")
	require.NoError(t, os.WriteFile(path, []byte(`{"address":"x","secretKey":"c2hvcnQ="}`), 0600))

	identity, err := NewStore(path, nil).Load()
	require.NoError(t, err)
	assert.False(t, identity.Address().IsZero())
}

func TestReset_ReplacesIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")
	store := NewStore(path, nil)

	before, err := store.Load()
	require.NoError(t, err)

	after, err := store.Reset()
	require.NoError(t, err)
	assert.NotEqual(t, before.Address(), after.Address())

	// the new identity is what future loads see
	reloaded, err := NewStore(path, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, after.Address(), reloaded.Address())
}

func TestEncryptedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.key")
	passphrase := []byte("hunter2")

	first, err := NewStore(path, passphrase).Load()
	require.NoError(t, err)

	second, err := NewStore(path, passphrase).Load()
	require.NoError(t, err)
	assert.Equal(t, first.Address(), second.Address())
}

func TestIdentity_SignsForOwnAddress(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.key"), nil)
	identity, err := store.Load()
	require.NoError(t, err)

	var blockhash solana.Hash
	blockhash[0] = 1
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(42, identity.Address(), solana.NewWallet().PublicKey()).Build(),
		},
		blockhash,
		solana.TransactionPayer(identity.Address()),
	)
	require.NoError(t, err)

	require.NoError(t, identity.Sign(tx))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
}
