// Package cryptox implements the envelope-encryption primitives: per-user
// key derivation, password hashing, and the AEAD field codec used for
// encrypted record columns.
//
// A derived encryption key exists only for the duration of one request or
// transaction. It is never persisted and never logged; callers wipe it with
// common.WipeByteArray when the scope ends.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/minkvault/mink/internal/common"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// SaltSize is the per-user encryption salt length in bytes.
	SaltSize = 32
	// PBKDF2Iterations follows the OWASP recommended minimum for SHA-256.
	PBKDF2Iterations = 310000
)

// DeriveKey turns (password, stored salt, server pepper) into a 32-byte
// symmetric key. Deterministic: any password yields a key; a wrong password
// simply produces a key that fails AEAD authentication downstream.
//
// The pepper is a process-wide secret, distinct from the per-user salt; it
// raises the cost of offline brute force even if salts leak.
func DeriveKey(password, saltHex, pepper string) ([]byte, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password+pepper), salt, PBKDF2Iterations, KeySize, sha256.New)
	return key, nil
}

// GenerateSalt returns a fresh random salt, hex-encoded for storage. Invoked
// at account creation and at every password change or reset. Changing the
// salt without re-encrypting existing records makes them permanently
// undecryptable, which is intentional for admin-forced resets.
func GenerateSalt() string {
	return hex.EncodeToString(common.GenerateRandByteArray(SaltSize))
}
