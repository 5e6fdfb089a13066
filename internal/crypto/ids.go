package crypto

import (
	"crypto/rand"
	"fmt"
)

// IDLength is the length of generated token and check identifiers
const IDLength = 20

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID returns a random string of n characters from [a-z0-9].
func GenerateID(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("id length must be positive, got %d", n)
	}

	// Отбрасываем байты >= 252, чтобы не было смещения распределения
	limit := byte(256 - 256%len(idAlphabet))
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}
