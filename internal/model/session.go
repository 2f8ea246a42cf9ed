package model

// SessionKeyFile represents the persisted session key file. When a passphrase
// is configured the Secret fields are empty and the scrypt envelope fields are
// set instead; otherwise the secret is stored directly.
type SessionKeyFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	QR         string `json:"QR"` // base64 PNG of the address
	CreatedAt  string `json:"createdAt"`
	SecretKey  string `json:"secretKey,omitempty"` // base64, plaintext mode only
	Salt       string `json:"salt,omitempty"`
	Nonce      string `json:"nonce,omitempty"`
	CipherText string `json:"cipherText,omitempty"`
}

// SessionKeyData is the decrypted payload of an encrypted session key file.
type SessionKeyData struct {
	SecretKey []byte `json:"secretKey"` // 64-byte ed25519 key (base64 in JSON)
	CreatedAt string `json:"createdAt"`
}

// SessionResponse represents response for GET /session
type SessionResponse struct {
	Address   string `json:"address"`
	QR        string `json:"QR"`
	CreatedAt string `json:"createdAt"`
}
