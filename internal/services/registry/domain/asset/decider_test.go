package asset

import (
	"encoding/json"
	"testing"

	apperrors "github.com/louisbranch/menagerie/internal/platform/errors"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/command"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/entropy"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

func seeded(counter state.AssetID, genomes map[state.AssetID]state.Genome) *state.State {
	owners := make(map[state.AssetID]state.AccountID, len(genomes))
	for id := range genomes {
		owners[id] = "alice"
	}
	return state.FromSnapshot(state.Snapshot{Counter: counter, Genomes: genomes, Owners: owners})
}

func rejectionCode(t *testing.T, decision command.Decision) apperrors.Code {
	t.Helper()
	if len(decision.Rejections) != 1 {
		t.Fatalf("rejections = %d, want 1", len(decision.Rejections))
	}
	if len(decision.Events) != 0 {
		t.Fatalf("events = %d, want 0 on rejection", len(decision.Events))
	}
	return decision.Rejections[0].Code
}

func createdPayload(t *testing.T, decision command.Decision) event.AssetCreatedPayload {
	t.Helper()
	if len(decision.Rejections) != 0 {
		t.Fatalf("unexpected rejection: %+v", decision.Rejections[0])
	}
	if len(decision.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(decision.Events))
	}
	var payload event.AssetCreatedPayload
	if err := json.Unmarshal(decision.Events[0].PayloadJSON, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

func TestCreateAssignsCounterAsID(t *testing.T) {
	cmd := command.NewCreate("alice")
	cmd.Entropy = entropy.Value{0xde, 0xad}

	payload := createdPayload(t, Decide(seeded(7, nil), cmd))
	if payload.AssetID != 7 {
		t.Fatalf("asset id = %d, want 7", payload.AssetID)
	}
	if payload.Owner != "alice" {
		t.Fatalf("owner = %q, want alice", payload.Owner)
	}
	if payload.Genome != state.Genome(cmd.Entropy) {
		t.Fatalf("genome = %s, want %s", payload.Genome, cmd.Entropy)
	}
	if len(payload.Parents) != 0 {
		t.Fatalf("parents = %v, want none", payload.Parents)
	}
}

func TestCreateRejectsAtCounterMax(t *testing.T) {
	decision := Decide(seeded(state.MaxAssetID, nil), command.NewCreate("alice"))
	if code := rejectionCode(t, decision); code != apperrors.CodeCounterOverflow {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeCounterOverflow)
	}
}

func TestCreateAcceptsJustBelowMax(t *testing.T) {
	payload := createdPayload(t, Decide(seeded(state.MaxAssetID-1, nil), command.NewCreate("alice")))
	if payload.AssetID != state.MaxAssetID-1 {
		t.Fatalf("asset id = %d, want %d", payload.AssetID, state.MaxAssetID-1)
	}
}

func TestBreedSameParent(t *testing.T) {
	for _, id := range []state.AssetID{0, 5, state.MaxAssetID} {
		// Empty state and a full counter: the parent check still wins.
		decision := Decide(seeded(state.MaxAssetID, nil), command.NewBreed("alice", id, id))
		if code := rejectionCode(t, decision); code != apperrors.CodeSameParentIndex {
			t.Fatalf("breed(%d,%d) code = %s, want %s", id, id, code, apperrors.CodeSameParentIndex)
		}
	}
}

func TestBreedMissingParent(t *testing.T) {
	view := seeded(1, map[state.AssetID]state.Genome{0: {1}})

	for _, parents := range [][2]state.AssetID{{0, 1}, {1, 0}, {4, 5}} {
		decision := Decide(view, command.NewBreed("alice", parents[0], parents[1]))
		if code := rejectionCode(t, decision); code != apperrors.CodeInvalidAssetIndex {
			t.Fatalf("breed(%v) code = %s, want %s", parents, code, apperrors.CodeInvalidAssetIndex)
		}
	}
}

func TestBreedMixesParentsBytewise(t *testing.T) {
	g1 := state.Genome{0xff, 0x0f, 0xaa, 0x00, 0x12, 0x34}
	g2 := state.Genome{0x00, 0xf0, 0x55, 0xff, 0xab, 0xcd}
	view := seeded(2, map[state.AssetID]state.Genome{0: g1, 1: g2})

	cmd := command.NewBreed("bob", 0, 1)
	cmd.Entropy = entropy.Value{0xf0, 0xff, 0x0f, 0x3c, 0x00, 0xff, 0x81}

	payload := createdPayload(t, Decide(view, cmd))
	if payload.AssetID != 2 {
		t.Fatalf("asset id = %d, want 2", payload.AssetID)
	}
	if payload.Owner != "bob" {
		t.Fatalf("owner = %q, want bob", payload.Owner)
	}
	for i := range payload.Genome {
		want := (cmd.Entropy[i] & g1[i]) | (^cmd.Entropy[i] & g2[i])
		if payload.Genome[i] != want {
			t.Fatalf("genome[%d] = %#x, want %#x", i, payload.Genome[i], want)
		}
	}
	if len(payload.Parents) != 2 || payload.Parents[0] != 0 || payload.Parents[1] != 1 {
		t.Fatalf("parents = %v, want [0 1]", payload.Parents)
	}
}

func TestBreedRejectsAtCounterMax(t *testing.T) {
	view := seeded(state.MaxAssetID, map[state.AssetID]state.Genome{0: {1}, 1: {2}})
	decision := Decide(view, command.NewBreed("alice", 0, 1))
	if code := rejectionCode(t, decision); code != apperrors.CodeCounterOverflow {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeCounterOverflow)
	}
}

func TestMixSelectorExtremes(t *testing.T) {
	g1 := state.Genome{1, 2, 3}
	g2 := state.Genome{4, 5, 6}

	var all entropy.Value
	for i := range all {
		all[i] = 0xff
	}
	if got := Mix(all, g1, g2); got != g1 {
		t.Fatalf("all-ones selector = %s, want parent1 %s", got, g1)
	}
	if got := Mix(entropy.Value{}, g1, g2); got != g2 {
		t.Fatalf("zero selector = %s, want parent2 %s", got, g2)
	}
}

func TestDecideRejectsMalformedPayload(t *testing.T) {
	cmd := command.Command{Type: command.TypeBreed, Caller: "alice", PayloadJSON: []byte("{")}
	if code := rejectionCode(t, Decide(state.New(), cmd)); code != apperrors.CodeInvalidArgument {
		t.Fatalf("code = %s, want %s", code, apperrors.CodeInvalidArgument)
	}
}

func TestFoldStagesAsset(t *testing.T) {
	base := state.New()
	overlay := state.NewOverlay(base)

	cmd := command.NewCreate("alice")
	cmd.Entropy = entropy.Value{9}
	decision := Decide(overlay, cmd)
	if err := Fold(overlay, decision.Events[0]); err != nil {
		t.Fatalf("fold: %v", err)
	}

	if overlay.Counter() != 1 {
		t.Fatalf("counter = %d, want 1", overlay.Counter())
	}
	if owner, ok := overlay.Owner(0); !ok || owner != "alice" {
		t.Fatalf("owner = %q, %v, want alice", owner, ok)
	}
	if genome, ok := overlay.Genome(0); !ok || genome != (state.Genome{9}) {
		t.Fatalf("genome = %s, %v", genome, ok)
	}
	if base.Counter() != 0 {
		t.Fatal("fold must not touch base state")
	}
}

func TestFoldRejectsOtherEvents(t *testing.T) {
	if err := Fold(state.NewOverlay(state.New()), event.Event{Type: event.TypeSold}); err == nil {
		t.Fatal("expected error for unhandled event type")
	}
}
