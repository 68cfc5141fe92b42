package engine

import (
	"context"

	"github.com/louisbranch/menagerie/internal/services/registry/domain/command"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

// Create mints a new asset owned by caller and returns its id.
func (e *Engine) Create(ctx context.Context, caller state.AccountID) (state.AssetID, error) {
	result, err := e.Execute(ctx, command.NewCreate(caller))
	if err != nil {
		return 0, err
	}
	return result.AssetID, nil
}

// Breed mints a child of two distinct existing assets for caller.
func (e *Engine) Breed(ctx context.Context, caller state.AccountID, parent1, parent2 state.AssetID) (state.AssetID, error) {
	result, err := e.Execute(ctx, command.NewBreed(caller, parent1, parent2))
	if err != nil {
		return 0, err
	}
	return result.AssetID, nil
}

// Transfer hands id from caller to newOwner.
func (e *Engine) Transfer(ctx context.Context, caller, newOwner state.AccountID, id state.AssetID) error {
	_, err := e.Execute(ctx, command.NewTransfer(caller, newOwner, id))
	return err
}

// List sets the sale price of id. A nil price delists.
func (e *Engine) List(ctx context.Context, caller state.AccountID, id state.AssetID, price *state.Balance) error {
	_, err := e.Execute(ctx, command.NewList(caller, id, price))
	return err
}

// Buy pays the listed price of id to its owner and takes ownership.
func (e *Engine) Buy(ctx context.Context, buyer state.AccountID, id state.AssetID) error {
	_, err := e.Execute(ctx, command.NewBuy(buyer, id))
	return err
}

// Record is the read model of one asset.
type Record struct {
	ID     state.AssetID
	Genome state.Genome
	Owner  state.AccountID
	// Price is nil when the asset is not for sale.
	Price *state.Balance
}

// Counter returns the next id to assign.
func (e *Engine) Counter() state.AssetID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Counter()
}

// Genome returns the genome of id.
func (e *Engine) Genome(id state.AssetID) (state.Genome, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Genome(id)
}

// OwnerOf returns the current owner of id.
func (e *Engine) OwnerOf(id state.AssetID) (state.AccountID, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Owner(id)
}

// Price returns the listing price of id.
func (e *Engine) Price(id state.AssetID) (state.Balance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Price(id)
}

// Asset returns the full record of id.
func (e *Engine) Asset(id state.AssetID) (Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	genome, ok := e.state.Genome(id)
	if !ok {
		return Record{}, false
	}
	record := Record{ID: id, Genome: genome}
	record.Owner, _ = e.state.Owner(id)
	if price, ok := e.state.Price(id); ok {
		record.Price = &price
	}
	return record, true
}

// Snapshot returns a copy of the whole registry state.
func (e *Engine) Snapshot() state.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Snapshot()
}
