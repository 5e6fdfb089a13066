package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// Supported password hashing algorithms
const (
	AlgorithmHMACSHA256 = "hmac-sha256"
	AlgorithmBlake2b    = "blake2b"
)

// ErrEmptyInput is returned when there is nothing to hash
var ErrEmptyInput = errors.New("input cannot be empty")

// Hasher хеширует пароли keyed-хешем с общим для процесса секретом.
// Одинаковые вход и секрет всегда дают одинаковый результат.
type Hasher struct {
	newHash func() (hash.Hash, error)
}

// NewHasher creates a Hasher for the named algorithm keyed with secret.
func NewHasher(algorithm string, secret []byte) (*Hasher, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("hashing secret cannot be empty")
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	var h *Hasher
	switch algorithm {
	case AlgorithmHMACSHA256, "":
		h = &Hasher{newHash: func() (hash.Hash, error) {
			return hmac.New(sha256.New, key), nil
		}}
	case AlgorithmBlake2b:
		h = &Hasher{newHash: func() (hash.Hash, error) {
			return blake2b.New256(key)
		}}
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}

	// blake2b принимает ключ не длиннее 64 байт, проверяем сразу
	if _, err := h.newHash(); err != nil {
		return nil, fmt.Errorf("invalid hashing secret: %w", err)
	}

	return h, nil
}

// Hash returns the hex-encoded keyed digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyInput
	}

	mac, err := h.newHash()
	if err != nil {
		return "", fmt.Errorf("failed to init hash: %w", err)
	}
	mac.Write([]byte(plaintext))

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether plaintext hashes to digest.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}

	computed, err := h.Hash(plaintext)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
