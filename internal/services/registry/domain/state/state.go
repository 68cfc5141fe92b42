package state

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
)

// AccountID identifies an account supplied by the host ledger. Only equality is
// meaningful.
type AccountID string

// AssetID numbers assets sequentially from zero.
type AssetID uint32

// MaxAssetID is reserved as the counter overflow sentinel and is never assigned.
const MaxAssetID = AssetID(math.MaxUint32)

// String renders the id in decimal.
func (id AssetID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Balance is an amount of the host currency.
type Balance uint64

// GenomeSize is the fixed genome width in bytes.
const GenomeSize = 16

// Genome is the fixed 16-byte trait value of an asset.
type Genome [GenomeSize]byte

// String renders the genome as lowercase hex.
func (g Genome) String() string {
	return hex.EncodeToString(g[:])
}

// MarshalText encodes the genome as hex.
func (g Genome) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a hex genome.
func (g *Genome) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("decode genome: %w", err)
	}
	if len(decoded) != GenomeSize {
		return fmt.Errorf("genome must be %d bytes, got %d", GenomeSize, len(decoded))
	}
	copy(g[:], decoded)
	return nil
}

// View is the read side of registry state used by deciders.
type View interface {
	// Counter returns the next id to assign; an unset counter reads as zero.
	Counter() AssetID
	Genome(id AssetID) (Genome, bool)
	Owner(id AssetID) (AccountID, bool)
	Price(id AssetID) (Balance, bool)
}

// Snapshot is a plain copy of every registry map, used for loading and
// inspection.
type Snapshot struct {
	Counter AssetID
	Genomes map[AssetID]Genome
	Owners  map[AssetID]AccountID
	Prices  map[AssetID]Balance
}

// State owns the asset counter and the genome, owner, and price maps.
//
// State is only mutated through Apply with a change set produced by an
// Overlay, so every write goes through a staged call.
type State struct {
	counter AssetID
	genomes map[AssetID]Genome
	owners  map[AssetID]AccountID
	prices  map[AssetID]Balance
}

// New returns empty registry state.
func New() *State {
	return &State{
		genomes: map[AssetID]Genome{},
		owners:  map[AssetID]AccountID{},
		prices:  map[AssetID]Balance{},
	}
}

// FromSnapshot builds state from a snapshot. The snapshot maps are copied.
func FromSnapshot(snapshot Snapshot) *State {
	s := New()
	s.counter = snapshot.Counter
	for id, genome := range snapshot.Genomes {
		s.genomes[id] = genome
	}
	for id, owner := range snapshot.Owners {
		s.owners[id] = owner
	}
	for id, price := range snapshot.Prices {
		s.prices[id] = price
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	out := Snapshot{
		Counter: s.counter,
		Genomes: make(map[AssetID]Genome, len(s.genomes)),
		Owners:  make(map[AssetID]AccountID, len(s.owners)),
		Prices:  make(map[AssetID]Balance, len(s.prices)),
	}
	for id, genome := range s.genomes {
		out.Genomes[id] = genome
	}
	for id, owner := range s.owners {
		out.Owners[id] = owner
	}
	for id, price := range s.prices {
		out.Prices[id] = price
	}
	return out
}

// Counter returns the next id to assign.
func (s *State) Counter() AssetID {
	return s.counter
}

// Genome returns the genome stored for id.
func (s *State) Genome(id AssetID) (Genome, bool) {
	genome, ok := s.genomes[id]
	return genome, ok
}

// Owner returns the current owner of id.
func (s *State) Owner(id AssetID) (AccountID, bool) {
	owner, ok := s.owners[id]
	return owner, ok
}

// Price returns the listing price of id when it is for sale.
func (s *State) Price(id AssetID) (Balance, bool) {
	price, ok := s.prices[id]
	return price, ok
}

// Apply commits a change set produced by an Overlay.
func (s *State) Apply(changes ChangeSet) {
	if changes.Counter != nil {
		s.counter = *changes.Counter
	}
	for id, genome := range changes.Genomes {
		s.genomes[id] = genome
	}
	for id, owner := range changes.Owners {
		s.owners[id] = owner
	}
	for id, price := range changes.Prices {
		if price == nil {
			delete(s.prices, id)
			continue
		}
		s.prices[id] = *price
	}
}

var _ View = (*State)(nil)
