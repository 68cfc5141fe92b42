// Package host is the development ledger the registry runs inside when it is
// not embedded in a real chain: a block clock with per-block seeds and an
// in-memory balance book.
package host

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/menagerie/internal/random"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/engine"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/entropy"
)

// SeedFunc produces the seed for a new block.
type SeedFunc func() (entropy.Seed, error)

// RandomSeeds draws every block seed from crypto/rand.
func RandomSeeds() SeedFunc {
	return func() (entropy.Seed, error) {
		seed, err := random.NewSeed()
		return entropy.Seed(seed), err
	}
}

// FixedSeed returns the same seed for every block.
func FixedSeed(seed entropy.Seed) SeedFunc {
	return func() (entropy.Seed, error) { return seed, nil }
}

// Chain tracks the current block, its seed, and the next call index.
type Chain struct {
	mu        sync.Mutex
	number    uint64
	seed      entropy.Seed
	callIndex uint32
	seeds     SeedFunc
}

// NewChain starts a chain at block 1.
func NewChain(seeds SeedFunc) (*Chain, error) {
	if seeds == nil {
		seeds = RandomSeeds()
	}
	seed, err := seeds()
	if err != nil {
		return nil, fmt.Errorf("seed block 1: %w", err)
	}
	return &Chain{number: 1, seed: seed, seeds: seeds}, nil
}

// RandomSeed returns the seed of the current block.
func (c *Chain) RandomSeed() entropy.Seed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seed
}

// Stamp returns the current block number and seed and takes the next call
// index, all under one lock.
func (c *Chain) Stamp() engine.Stamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	stamp := engine.Stamp{Block: c.number, Seed: c.seed, CallIndex: c.callIndex}
	c.callIndex++
	return stamp
}

// Advance moves to the next block with a fresh seed and a zero call index.
// On a seed failure the chain stays on the current block.
func (c *Chain) Advance() error {
	seed, err := c.seeds()
	if err != nil {
		return fmt.Errorf("seed block: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.number++
	c.seed = seed
	c.callIndex = 0
	return nil
}

// Run advances the chain every interval until ctx is done.
func (c *Chain) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Advance(); err != nil {
				log.Printf("advance block: %v", err)
			}
		}
	}
}

var _ engine.BlockSource = (*Chain)(nil)
