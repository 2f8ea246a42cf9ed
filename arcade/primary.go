package arcade

import (
	"context"
	"fmt"

	"github.com/VDuda/arcade-sol/internal/client"
	"github.com/VDuda/arcade-sol/internal/funding"

	"github.com/gagliardetto/solana-go"
)

// FilePrimarySigner fulfills the primary-wallet signing role from a standard
// solana keygen JSON file on disk. It approves unconditionally; interactive
// approval belongs to whatever front end wraps it.
type FilePrimarySigner struct {
	key    solana.PrivateKey
	ledger client.Ledger
}

var _ funding.PrimarySigner = (*FilePrimarySigner)(nil)

// LoadFilePrimarySigner reads a keygen-format keypair file and binds it to the
// given ledger for submission.
func LoadFilePrimarySigner(path string, ledger client.Ledger) (*FilePrimarySigner, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load primary keypair: %w", err)
	}
	return &FilePrimarySigner{key: key, ledger: ledger}, nil
}

func (s *FilePrimarySigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// SignAndSend signs with the primary key and broadcasts through the ledger.
// It does not wait for finality; the funding flow confirms the returned
// signature itself.
func (s *FilePrimarySigner) SignAndSend(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign: %w", err)
	}
	return s.ledger.Submit(ctx, tx)
}
