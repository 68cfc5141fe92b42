// Package random provides cryptographic seed generation helpers.
//
// Seeds come from crypto/rand and are meant to initialize deterministic
// derivations, not to be kept secret once published.
package random

import (
	crand "crypto/rand"
	"fmt"
	"io"
)

// SeedSize is the width of a block seed in bytes.
const SeedSize = 32

// NewSeed generates a block seed using crypto/rand.
func NewSeed() ([SeedSize]byte, error) {
	return NewSeedFrom(crand.Reader)
}

// NewSeedFrom reads a block seed from r.
func NewSeedFrom(r io.Reader) ([SeedSize]byte, error) {
	var seed [SeedSize]byte
	if _, err := io.ReadFull(r, seed[:]); err != nil {
		return seed, fmt.Errorf("read random seed: %w", err)
	}
	return seed, nil
}
