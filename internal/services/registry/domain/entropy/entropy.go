// Package entropy derives the 16-byte values used for new genomes and breed
// selectors.
//
// The value is blake2b-128 over the block seed, the caller, and the call's
// index within the block. Anyone who learns the block seed before submitting
// a call can predict the result; the registry accepts that and does not try
// to hide the seed.
package entropy

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

// SeedSize is the width of a block seed.
const SeedSize = 32

// Seed is the block-wide random seed published by the host.
type Seed [SeedSize]byte

// Value is one derived 16-byte pseudo-random value.
type Value [state.GenomeSize]byte

// String renders the value as hex.
func (v Value) String() string {
	return hex.EncodeToString(v[:])
}

// RandomnessSource supplies the seed of the block being executed.
type RandomnessSource interface {
	RandomSeed() Seed
}

// Encode lays out the hash input: seed, uvarint caller length, caller bytes,
// little-endian call index.
func Encode(seed Seed, caller state.AccountID, callIndex uint32) []byte {
	buf := make([]byte, 0, SeedSize+binary.MaxVarintLen64+len(caller)+4)
	buf = append(buf, seed[:]...)
	buf = binary.AppendUvarint(buf, uint64(len(caller)))
	buf = append(buf, caller...)
	buf = binary.LittleEndian.AppendUint32(buf, callIndex)
	return buf
}

// Derive hashes the encoded inputs to 16 bytes.
func Derive(seed Seed, caller state.AccountID, callIndex uint32) Value {
	h, err := blake2b.New(state.GenomeSize, nil)
	if err != nil {
		// Only reachable with an invalid size or key.
		panic(err)
	}
	_, _ = h.Write(Encode(seed, caller, callIndex))

	var out Value
	copy(out[:], h.Sum(nil))
	return out
}
