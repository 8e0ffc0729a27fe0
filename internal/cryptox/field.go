package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/minkvault/mink/internal/common"
)

const (
	// IVSize is the AES-GCM nonce length in bytes. 16 rather than the GCM
	// default of 12: the stored-row format shares one 128-bit IV across all
	// fields of a record version.
	IVSize = 16
	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16
)

// ErrAuthentication is returned when an AEAD tag check fails: wrong key or
// tampered/corrupted ciphertext. Read paths surface it as a per-record
// marker; transactional paths treat it as fatal.
var ErrAuthentication = errors.New("authentication failed")

// GenerateIV returns a fresh random IV. Callers MUST generate a new IV for
// every record write; the same IV is deliberately reused across the fields
// of one record version, so it must never repeat for a given key.
func GenerateIV() []byte {
	return common.GenerateRandByteArray(IVSize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// EncryptField encrypts one string field under the shared record IV.
// The ciphertext and authentication tag are returned separately, hex-encoded,
// matching the persisted column layout.
func EncryptField(plaintext string, key, iv []byte) (ciphertextHex, tagHex string, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", "", err
	}
	if len(iv) != IVSize {
		return "", "", fmt.Errorf("iv must be %d bytes, got %d", IVSize, len(iv))
	}

	// Seal appends the tag to the ciphertext; split it back out.
	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	boundary := len(sealed) - TagSize
	return hex.EncodeToString(sealed[:boundary]), hex.EncodeToString(sealed[boundary:]), nil
}

// DecryptField reverses EncryptField. A tag mismatch yields ErrAuthentication;
// no partial plaintext is ever returned.
func DecryptField(ciphertextHex, tagHex string, key, iv []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	tag, err := hex.DecodeString(tagHex)
	if err != nil {
		return "", fmt.Errorf("invalid auth tag encoding: %w", err)
	}
	if len(tag) != TagSize {
		return "", ErrAuthentication
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}
