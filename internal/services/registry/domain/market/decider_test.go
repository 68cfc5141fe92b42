package market

import (
	"testing"

	apperrors "github.com/louisbranch/menagerie/internal/platform/errors"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/command"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

func registry(owner state.AccountID, prices map[state.AssetID]state.Balance) *state.State {
	return state.FromSnapshot(state.Snapshot{
		Counter: 1,
		Genomes: map[state.AssetID]state.Genome{0: {7}},
		Owners:  map[state.AssetID]state.AccountID{0: owner},
		Prices:  prices,
	})
}

func balancePtr(v state.Balance) *state.Balance { return &v }

func rejected(t *testing.T, decision command.Decision, want apperrors.Code) {
	t.Helper()
	if len(decision.Rejections) != 1 {
		t.Fatalf("rejections = %+v, want one %s", decision.Rejections, want)
	}
	if got := decision.Rejections[0].Code; got != want {
		t.Fatalf("code = %s, want %s", got, want)
	}
	if len(decision.Events) != 0 || len(decision.Settlements) != 0 {
		t.Fatal("rejected decision must carry no events or settlements")
	}
}

func TestListRequiresOwner(t *testing.T) {
	rejected(t, Decide(registry("bob", nil), command.NewList("alice", 0, balancePtr(10))), apperrors.CodeNotOwner)
	rejected(t, Decide(state.New(), command.NewList("alice", 9, balancePtr(10))), apperrors.CodeNotOwner)
}

func TestListSetsAndClearsPrice(t *testing.T) {
	overlay := state.NewOverlay(registry("alice", nil))

	decision := Decide(overlay, command.NewList("alice", 0, balancePtr(5000)))
	if len(decision.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(decision.Events))
	}
	if err := Fold(overlay, decision.Events[0]); err != nil {
		t.Fatalf("fold list: %v", err)
	}
	if price, ok := overlay.Price(0); !ok || price != 5000 {
		t.Fatalf("price = %d, %v, want 5000", price, ok)
	}

	decision = Decide(overlay, command.NewList("alice", 0, nil))
	if err := Fold(overlay, decision.Events[0]); err != nil {
		t.Fatalf("fold delist: %v", err)
	}
	if _, ok := overlay.Price(0); ok {
		t.Fatal("expected listing cleared")
	}
}

func TestListAcceptsZeroPrice(t *testing.T) {
	overlay := state.NewOverlay(registry("alice", nil))
	decision := Decide(overlay, command.NewList("alice", 0, balancePtr(0)))
	if err := Fold(overlay, decision.Events[0]); err != nil {
		t.Fatalf("fold: %v", err)
	}
	if price, ok := overlay.Price(0); !ok || price != 0 {
		t.Fatalf("price = %d, %v, want listed at 0", price, ok)
	}
}

func TestBuyRejections(t *testing.T) {
	tests := []struct {
		name  string
		view  *state.State
		buyer state.AccountID
		id    state.AssetID
		want  apperrors.Code
	}{
		{name: "missing asset", view: state.New(), buyer: "bob", id: 3, want: apperrors.CodeNotOwner},
		{name: "not listed", view: registry("alice", nil), buyer: "bob", id: 0, want: apperrors.CodeNotForSale},
		{name: "own unlisted asset", view: registry("alice", nil), buyer: "alice", id: 0, want: apperrors.CodeNotForSale},
		{name: "own listed asset", view: registry("alice", map[state.AssetID]state.Balance{0: 5000}), buyer: "alice", id: 0, want: apperrors.CodeAlreadyOwned},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rejected(t, Decide(tc.view, command.NewBuy(tc.buyer, tc.id)), tc.want)
		})
	}
}

func TestBuySettlesWithCurrentOwner(t *testing.T) {
	overlay := state.NewOverlay(registry("alice", map[state.AssetID]state.Balance{0: 8000}))

	decision := Decide(overlay, command.NewBuy("bob", 0))
	if len(decision.Rejections) != 0 {
		t.Fatalf("unexpected rejection: %+v", decision.Rejections)
	}
	if len(decision.Settlements) != 1 {
		t.Fatalf("settlements = %d, want 1", len(decision.Settlements))
	}
	want := command.Settlement{From: "bob", To: "alice", Amount: 8000}
	if decision.Settlements[0] != want {
		t.Fatalf("settlement = %+v, want %+v", decision.Settlements[0], want)
	}

	if err := Fold(overlay, decision.Events[0]); err != nil {
		t.Fatalf("fold: %v", err)
	}
	if owner, _ := overlay.Owner(0); owner != "bob" {
		t.Fatalf("owner = %q, want bob", owner)
	}
	if _, ok := overlay.Price(0); ok {
		t.Fatal("expected listing cleared after sale")
	}
}

func TestSettlementMetadata(t *testing.T) {
	md := SettlementMetadata(4, command.Settlement{From: "bob", To: "alice", Amount: 8000})
	if md["amount"] != "8000" || md["asset_id"] != "4" || md["from"] != "bob" || md["to"] != "alice" {
		t.Fatalf("metadata = %v", md)
	}
}
