// Package keystore encodes and decodes the session key file. The file holds
// the session identity's signing material keyed by a fixed on-disk location;
// it must round-trip exactly (encode, decode, same identity).
//
// Two layouts share one JSON envelope: plaintext (secretKey stored directly,
// the default for a disposable session key) and encrypted (scrypt-derived key,
// AES-GCM sealed payload) when the user configured a passphrase.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/VDuda/arcade-sol/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the encrypted layout.
	// N=2^18 (~256MB RAM, 0.5-2s): expensive enough to make brute force
	// uneconomical for a key that only ever holds pocket change, while still
	// working inside mobile memory limits.
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// ErrNotFound is returned by Load when no keystore file exists.
var ErrNotFound = errors.New("keystore file does not exist")

// Save writes the session key file, overwriting any existing file at path.
// passphrase nil selects the plaintext layout; the caller should zero both
// passphrase and data.SecretKey after use.
func Save(path, network, address, qr string, data *model.SessionKeyData, passphrase []byte) error {
	file := model.SessionKeyFile{
		Network:   network,
		Address:   address,
		QR:        qr,
		CreatedAt: data.CreatedAt,
	}

	if len(passphrase) == 0 {
		file.SecretKey = base64.StdEncoding.EncodeToString(data.SecretKey)
	} else {
		salt, nonce, cipherText, err := seal(data, passphrase)
		if err != nil {
			return err
		}
		file.Salt = base64.StdEncoding.EncodeToString(salt)
		file.Nonce = base64.StdEncoding.EncodeToString(nonce)
		file.CipherText = base64.StdEncoding.EncodeToString(cipherText)
	}

	fileData, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create keystore dir: %w", err)
	}
	if err := os.WriteFile(path, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write keystore file: %w", err)
	}

	return nil
}

// Load reads and decodes the session key file.
// Returns ErrNotFound when the file is absent; any other failure to decode is
// surfaced so the caller can fail over to generating a fresh identity.
func Load(path string, passphrase []byte) (*model.SessionKeyFile, *model.SessionKeyData, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to stat keystore file: %w", err)
	}
	if fileInfo.Size() == 0 {
		return nil, nil, errors.New("keystore file is empty")
	}

	fileData, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read keystore file: %w", err)
	}

	var file model.SessionKeyFile
	if err := json.Unmarshal(fileData, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal keystore file: %w", err)
	}

	if file.CipherText == "" {
		secret, err := base64.StdEncoding.DecodeString(file.SecretKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode secret key: %w", err)
		}
		return &file, &model.SessionKeyData{SecretKey: secret, CreatedAt: file.CreatedAt}, nil
	}

	if len(passphrase) == 0 {
		return nil, nil, errors.New("keystore is encrypted but no passphrase is set")
	}

	data, err := open(&file, passphrase)
	if err != nil {
		return nil, nil, err
	}
	return &file, data, nil
}

// ReadAddress reads only the public address from the key file (no decryption).
func ReadAddress(path string) (string, error) {
	fileData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read keystore file: %w", err)
	}

	var file model.SessionKeyFile
	if err := json.Unmarshal(fileData, &file); err != nil {
		return "", fmt.Errorf("failed to unmarshal keystore file: %w", err)
	}

	return file.Address, nil
}

// Remove deletes the keystore file. Missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove keystore file: %w", err)
	}
	return nil
}

func seal(data *model.SessionKeyData, passphrase []byte) (salt, nonce, cipherText []byte, err error) {
	salt = make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce = make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, nil, nil, err
	}

	plaintext, err := json.Marshal(data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal key data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	cipherText = aesGCM.Seal(nil, nonce, plaintext, nil)
	return salt, nonce, cipherText, nil
}

func open(file *model.SessionKeyFile, passphrase []byte) (*model.SessionKeyData, error) {
	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(file.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	cipherText, err := base64.StdEncoding.DecodeString(file.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, errors.New("invalid passphrase")
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var data model.SessionKeyData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key data: %w", err)
	}

	return &data, nil
}

func newGCM(passphrase, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
