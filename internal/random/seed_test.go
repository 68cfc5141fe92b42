package random

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewSeedFromReadsFullWidth(t *testing.T) {
	src := bytes.Repeat([]byte{0xab}, SeedSize+4)
	seed, err := NewSeedFrom(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	for i, b := range seed {
		if b != 0xab {
			t.Fatalf("seed[%d] = %#x, want 0xab", i, b)
		}
	}
}

func TestNewSeedFromShortRead(t *testing.T) {
	if _, err := NewSeedFrom(strings.NewReader("short")); err == nil {
		t.Fatal("expected error on short read")
	}
}

func TestNewSeedVaries(t *testing.T) {
	first, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	second, err := NewSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	if first == second {
		t.Fatal("expected two random seeds to differ")
	}
}
