package event

import (
	"testing"
	"time"
)

func sample(seq uint64, caller string) Event {
	return Event{
		Seq:         seq,
		Type:        TypeAssetCreated,
		Caller:      "alice",
		AssetID:     3,
		BlockNumber: 9,
		CallIndex:   1,
		RequestID:   "req-" + caller,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PayloadJSON: []byte(`{"asset_id":3,"owner":"alice","genome":"00000000000000000000000000000000"}`),
	}
}

func TestHashIgnoresSeqAndHashes(t *testing.T) {
	a := sample(1, "x")
	b := sample(7, "x")
	b.Hash = "stale"
	b.ChainHash = "stale"

	ha, err := Hash(a)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hb, err := Hash(b)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ha != hb {
		t.Fatalf("hash depends on seq or stored hashes: %s vs %s", ha, hb)
	}
	if len(ha) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(ha))
	}
}

func TestHashCoversContent(t *testing.T) {
	base, _ := Hash(sample(1, "x"))
	changed := sample(1, "x")
	changed.CallIndex = 2
	other, _ := Hash(changed)
	if base == other {
		t.Fatal("expected call index to change the hash")
	}
}

func TestVerifyChain(t *testing.T) {
	prev := ""
	var events []Event
	for i, caller := range []string{"a", "b", "c"} {
		sealed, err := Seal(sample(uint64(i+1), caller), prev)
		if err != nil {
			t.Fatalf("seal: %v", err)
		}
		events = append(events, sealed)
		prev = sealed.ChainHash
	}
	if err := VerifyChain(events, ""); err != nil {
		t.Fatalf("verify: %v", err)
	}

	events[1].PayloadJSON = []byte(`{"asset_id":3,"owner":"mallory"}`)
	if err := VerifyChain(events, ""); err == nil {
		t.Fatal("expected tampered payload to fail verification")
	}
}
