// Package session owns the ephemeral session identity: a client-held Solana
// keypair that autonomously signs small payments. Other components receive a
// public address and a signing capability, never raw key material.
package session

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/VDuda/arcade-sol/internal/keystore"
	"github.com/VDuda/arcade-sol/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"
)

const networkSolana = "solana"

// Identity is a loaded session keypair. The private key never leaves this
// package.
type Identity struct {
	key       solana.PrivateKey
	address   solana.PublicKey
	qr        string
	createdAt string
}

// Address returns the identity's public address.
func (i *Identity) Address() solana.PublicKey {
	return i.address
}

// QR returns a base64 PNG QR code of the address for deposit display.
func (i *Identity) QR() string {
	return i.qr
}

// CreatedAt returns the identity's creation timestamp (RFC3339).
func (i *Identity) CreatedAt() string {
	return i.createdAt
}

// Sign signs the transaction with the session key wherever it is a required
// signer.
func (i *Identity) Sign(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if i.address.Equals(key) {
			return &i.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// Store is the Session Identity Store: load-or-create against one keystore
// file under a fixed path. At most one active identity per installation.
type Store struct {
	path       string
	passphrase []byte

	mu       sync.Mutex
	identity *Identity
}

// NewStore creates a store over the given keystore path. passphrase nil means
// plaintext persistence.
func NewStore(path string, passphrase []byte) *Store {
	return &Store{path: path, passphrase: passphrase}
}

// Load returns the session identity, creating and persisting a fresh one when
// no stored material exists or stored material fails to decode. Calling Load
// twice without an intervening Reset returns the same identity.
func (s *Store) Load() (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity != nil {
		return s.identity, nil
	}

	file, data, err := keystore.Load(s.path, s.passphrase)
	if err == nil {
		identity, decodeErr := identityFromKeyData(file, data)
		clear(data.SecretKey)
		if decodeErr == nil {
			s.identity = identity
			return identity, nil
		}
		// stored material decoded to something that is not a usable keypair;
		// fall through and replace it
	}

	identity, err := s.create()
	if err != nil {
		return nil, err
	}
	s.identity = identity
	return identity, nil
}

// Reset discards the stored identity and generates a fresh one. Either the
// identity is fully replaced or the old one stays in effect.
func (s *Store) Reset() (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := keystore.Remove(s.path); err != nil {
		return nil, err
	}

	identity, err := s.create()
	if err != nil {
		return nil, err
	}
	s.identity = identity
	return identity, nil
}

// create generates a new keypair and persists it before returning.
func (s *Store) create() (*Identity, error) {
	wallet := solana.NewWallet()
	defer clear(wallet.PrivateKey)

	address := wallet.PublicKey()

	qr, err := generateQRCode(address.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	data := &model.SessionKeyData{
		SecretKey: wallet.PrivateKey,
		CreatedAt: time.Now().Format(time.RFC3339),
	}

	if err := keystore.Save(s.path, networkSolana, address.String(), qr, data, s.passphrase); err != nil {
		return nil, fmt.Errorf("failed to persist session key: %w", err)
	}

	key := make(solana.PrivateKey, len(wallet.PrivateKey))
	copy(key, wallet.PrivateKey)

	return &Identity{
		key:       key,
		address:   address,
		qr:        qr,
		createdAt: data.CreatedAt,
	}, nil
}

func identityFromKeyData(file *model.SessionKeyFile, data *model.SessionKeyData) (*Identity, error) {
	if len(data.SecretKey) != 64 {
		return nil, fmt.Errorf("invalid session key length: expected 64 bytes, got %d", len(data.SecretKey))
	}

	key := make(solana.PrivateKey, 64)
	copy(key, data.SecretKey)

	address, err := solana.PublicKeyFromBase58(file.Address)
	if err != nil || !key.PublicKey().Equals(address) {
		// the stored address is authoritative only as a label; the key decides
		address = key.PublicKey()
	}

	return &Identity{
		key:       key,
		address:   address,
		qr:        file.QR,
		createdAt: data.CreatedAt,
	}, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
