package crypto

import (
	"crypto/rand"
	"errors"
	"io"
)

// ErrRandomGeneration is returned when random number generation fails.
var ErrRandomGeneration = errors.New("failed to generate random bytes")

// SeedSize is the size of a key seed in bytes.
const SeedSize = 16

// RandomBytes generates n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, ErrRandomGeneration
	}
	return b, nil
}

// RandomSeed generates a random seed suitable for KeyPairFromSeed.
func RandomSeed() ([]byte, error) {
	return RandomBytes(SeedSize)
}
