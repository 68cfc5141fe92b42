// Package event defines the registry's event envelope and payloads.
//
// Events are the only record of what an accepted call changed. Folding the
// payloads in order rebuilds registry state, so each payload carries every
// value its fold needs.
package event

import (
	"time"

	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

// Type identifies the event type string.
type Type string

const (
	// TypeAssetCreated is emitted by create and breed.
	TypeAssetCreated Type = "asset.created"
	// TypeTransferred is emitted by transfer.
	TypeTransferred Type = "asset.transferred"
	// TypeListed is emitted by list, including delisting.
	TypeListed Type = "asset.listed"
	// TypeSold is emitted by a successful buy.
	TypeSold Type = "asset.sold"
)

// Event is one immutable fact emitted by an accepted call.
type Event struct {
	// Seq is assigned by the journal; zero until appended.
	Seq         uint64
	Type        Type
	Caller      state.AccountID
	AssetID     state.AssetID
	BlockNumber uint64
	CallIndex   uint32
	RequestID   string
	Timestamp   time.Time
	PayloadJSON []byte
	// Hash and ChainHash are assigned by the journal.
	Hash      string
	ChainHash string
}

// AssetCreatedPayload records a new asset and its first owner.
type AssetCreatedPayload struct {
	AssetID state.AssetID   `json:"asset_id"`
	Owner   state.AccountID `json:"owner"`
	Genome  state.Genome    `json:"genome"`
	// Parents is set for bred assets only.
	Parents []state.AssetID `json:"parents,omitempty"`
}

// TransferredPayload records an ownership change by transfer.
type TransferredPayload struct {
	AssetID state.AssetID   `json:"asset_id"`
	From    state.AccountID `json:"from"`
	To      state.AccountID `json:"to"`
}

// ListedPayload records a listing update. A nil price delists.
type ListedPayload struct {
	AssetID state.AssetID   `json:"asset_id"`
	Owner   state.AccountID `json:"owner"`
	Price   *state.Balance  `json:"price,omitempty"`
}

// SoldPayload records a completed sale.
type SoldPayload struct {
	AssetID state.AssetID   `json:"asset_id"`
	Buyer   state.AccountID `json:"buyer"`
	Seller  state.AccountID `json:"seller"`
	Price   state.Balance   `json:"price"`
}
