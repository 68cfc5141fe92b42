package state

import (
	"encoding/json"
	"testing"
)

func TestOverlayReadsStagedWritesBeforeBase(t *testing.T) {
	base := FromSnapshot(Snapshot{
		Counter: 1,
		Genomes: map[AssetID]Genome{0: {1}},
		Owners:  map[AssetID]AccountID{0: "alice"},
		Prices:  map[AssetID]Balance{0: 500},
	})

	overlay := NewOverlay(base)
	overlay.SetCounter(2)
	overlay.PutGenome(1, Genome{2})
	overlay.PutOwner(0, "bob")
	overlay.SetPrice(0, nil)

	if got := overlay.Counter(); got != 2 {
		t.Fatalf("overlay counter = %d, want 2", got)
	}
	if owner, _ := overlay.Owner(0); owner != "bob" {
		t.Fatalf("overlay owner = %q, want bob", owner)
	}
	if _, ok := overlay.Price(0); ok {
		t.Fatal("expected staged clear to hide base price")
	}
	if genome, ok := overlay.Genome(1); !ok || genome != (Genome{2}) {
		t.Fatalf("overlay genome = %v, %v", genome, ok)
	}

	if got := base.Counter(); got != 1 {
		t.Fatalf("base counter = %d, want 1", got)
	}
	if owner, _ := base.Owner(0); owner != "alice" {
		t.Fatalf("base owner = %q, want alice", owner)
	}
	if price, ok := base.Price(0); !ok || price != 500 {
		t.Fatalf("base price = %d, %v, want 500", price, ok)
	}
}

func TestApplyCommitsChangeSet(t *testing.T) {
	base := FromSnapshot(Snapshot{
		Counter: 1,
		Genomes: map[AssetID]Genome{0: {1}},
		Owners:  map[AssetID]AccountID{0: "alice"},
		Prices:  map[AssetID]Balance{0: 500},
	})

	overlay := NewOverlay(base)
	overlay.SetCounter(2)
	overlay.PutGenome(1, Genome{9})
	overlay.PutOwner(1, "alice")
	overlay.SetPrice(0, nil)
	price := Balance(42)
	overlay.SetPrice(1, &price)
	price = 7

	base.Apply(overlay.Changes())

	if got := base.Counter(); got != 2 {
		t.Fatalf("counter = %d, want 2", got)
	}
	if _, ok := base.Price(0); ok {
		t.Fatal("expected listing 0 cleared")
	}
	if got, ok := base.Price(1); !ok || got != 42 {
		t.Fatalf("price(1) = %d, %v, want 42", got, ok)
	}
}

func TestChangeSetEmpty(t *testing.T) {
	overlay := NewOverlay(New())
	if !overlay.Changes().Empty() {
		t.Fatal("expected fresh overlay to be empty")
	}
	overlay.PutOwner(3, "carol")
	if overlay.Changes().Empty() {
		t.Fatal("expected staged owner to make change set non-empty")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := FromSnapshot(Snapshot{Owners: map[AssetID]AccountID{0: "alice"}})
	snap := s.Snapshot()
	snap.Owners[0] = "mallory"
	if owner, _ := s.Owner(0); owner != "alice" {
		t.Fatalf("owner = %q, want alice", owner)
	}
}

func TestGenomeJSONUsesHex(t *testing.T) {
	genome := Genome{0xde, 0xad, 0xbe, 0xef}
	data, err := json.Marshal(genome)
	if err != nil {
		t.Fatalf("marshal genome: %v", err)
	}
	if string(data) != `"deadbeef000000000000000000000000"` {
		t.Fatalf("genome json = %s", data)
	}

	var decoded Genome
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal genome: %v", err)
	}
	if decoded != genome {
		t.Fatalf("decoded genome = %s, want %s", decoded, genome)
	}

	if err := json.Unmarshal([]byte(`"abcd"`), &decoded); err == nil {
		t.Fatal("expected short genome error")
	}
}
