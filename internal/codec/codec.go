// Package codec encrypts and decrypts contact payloads with the per-account key.
//
// The server stores both the ciphertext and the key, so this only protects
// contact data against casual inspection of the database. It does not
// protect against a compromised server.
//
// Keys are never rotated. Rotating a key would mean decrypting every
// contact of the account with the old key and re-encrypting it with the
// new one inside a single transaction.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

// KeySize is the length of an account key in bytes (AES-256).
const KeySize = 32

var (
	// ErrDecryption is returned when a ciphertext cannot be opened with the
	// supplied key or does not hold a contact payload.
	ErrDecryption = errors.New("decryption failed")
	// ErrInvalidKey is returned for keys that are not hex-encoded 32-byte values.
	ErrInvalidKey = errors.New("invalid encryption key")
)

// GenerateKey returns a new hex-encoded 256-bit key from crypto/rand.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// newAEAD builds an AES-GCM cipher from a hex-encoded key.
func newAEAD(key string) (cipher.AEAD, error) {
	raw, err := hex.DecodeString(key)
	if err != nil || len(raw) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}

// Encrypt serializes data to JSON and seals it with AES-256-GCM.
// The result is base64(nonce || ciphertext), safe for a text column.
func Encrypt(data models.ContactData, key string) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	plain, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal contact: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Every failure, including
// a bad key, is reported as ErrDecryption.
func Decrypt(ciphertext, key string) (models.ContactData, error) {
	var data models.ContactData

	aead, err := newAEAD(key)
	if err != nil {
		return data, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return data, fmt.Errorf("%w: decode: %v", ErrDecryption, err)
	}
	if len(raw) < aead.NonceSize() {
		return data, fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return data, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	if err := json.Unmarshal(plain, &data); err != nil {
		return data, fmt.Errorf("%w: unmarshal: %v", ErrDecryption, err)
	}
	return data, nil
}
