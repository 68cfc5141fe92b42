// Package storage defines persistence contracts for registry state and its
// event journal.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

var (
	// ErrInvalidPageToken indicates a page token the store did not issue.
	ErrInvalidPageToken = errors.New("invalid page token")
	// ErrInvalidFilter indicates a filter expression the store cannot apply.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrPriceOutOfRange indicates a listing price the store cannot represent.
	ErrPriceOutOfRange = errors.New("price out of storable range")
)

// AssetRecord is the stored view of one asset.
type AssetRecord struct {
	ID     state.AssetID
	Genome state.Genome
	Owner  state.AccountID
	// Price is nil when the asset is not listed.
	Price *state.Balance
}

// AssetPage stores one page of asset records.
type AssetPage struct {
	Assets        []AssetRecord
	NextPageToken string
}

// EventQuery selects journal entries.
type EventQuery struct {
	AfterSeq uint64
	Limit    int
	// Filter is an AIP-160 expression over type, caller, asset_id, and block.
	Filter string
}

// StateLoader rebuilds registry state on start.
type StateLoader interface {
	LoadState(ctx context.Context) (state.Snapshot, error)
}

// Journal commits one call's changes and events atomically.
type Journal interface {
	Commit(ctx context.Context, changes state.ChangeSet, events []event.Event) ([]event.Event, error)
}

// AssetSearcher pages through assets with an AIP-160 filter.
type AssetSearcher interface {
	SearchAssets(ctx context.Context, filter string, pageSize int, pageToken string) (AssetPage, error)
}

// EventReader reads the journal in sequence order.
type EventReader interface {
	ListEvents(ctx context.Context, query EventQuery) ([]event.Event, error)
}

// Store is the full registry persistence surface.
type Store interface {
	StateLoader
	Journal
	AssetSearcher
	EventReader
	Close() error
}
