// Package cipher provides the symmetric text cipher used to seal every line
// written by the record and credential stores.
package cipher

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecrypt is returned for any input that was not produced by Encrypt under
// the same key: bad encoding, truncation, tampering or a foreign key.
var ErrDecrypt = errors.New("decrypt failed")

// Cipher turns text into an opaque single-line token and back.
//
// Encrypt is total. Decrypt fails with an error wrapping ErrDecrypt on
// malformed or foreign input and never panics.
type Cipher interface {
	Encrypt(plaintext string) string
	Decrypt(ciphertext string) (string, error)
}

// Argon2id parameters for key derivation.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// Sealer is an XChaCha20-Poly1305 Cipher. Tokens are the URL-safe base64
// (no padding) of nonce || ciphertext || tag, so they never contain a
// newline or a comma.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 256-bit key from passphrase and salt with Argon2id.
func NewSealer(passphrase, salt string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("cipher: empty passphrase")
	}
	key := argon2.IDKey([]byte(passphrase), []byte(salt), argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	return NewSealerWithKey(key)
}

// NewSealerWithKey uses a raw 32-byte key.
func NewSealerWithKey(key []byte) (*Sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (s *Sealer) Encrypt(plaintext string) string {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	// crypto/rand.Read never returns an error.
	_, _ = rand.Read(nonce)
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Decrypt opens a token produced by Encrypt.
func (s *Sealer) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: bad encoding", ErrDecrypt)
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns+s.aead.Overhead() {
		return "", fmt.Errorf("%w: token too short", ErrDecrypt)
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}
	return string(plain), nil
}
