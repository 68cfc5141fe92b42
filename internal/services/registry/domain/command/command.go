// Package command defines the registry call envelope and the pure decision a
// decider returns for it.
package command

import (
	"encoding/json"

	apperrors "github.com/louisbranch/menagerie/internal/platform/errors"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/entropy"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

// Type identifies the command type string.
type Type string

const (
	TypeCreate   Type = "asset.create"
	TypeBreed    Type = "asset.breed"
	TypeTransfer Type = "asset.transfer"
	TypeList     Type = "asset.list"
	TypeBuy      Type = "asset.buy"
)

// Command is one signed call dispatched by the host.
type Command struct {
	Type      Type
	Caller    state.AccountID
	RequestID string
	// BlockNumber, CallIndex, and Entropy are stamped by the engine at
	// dispatch time.
	BlockNumber uint64
	CallIndex   uint32
	Entropy     entropy.Value
	PayloadJSON []byte
}

// BreedPayload names the two parents of a breed call.
type BreedPayload struct {
	Parent1 state.AssetID `json:"parent_1"`
	Parent2 state.AssetID `json:"parent_2"`
}

// TransferPayload names the asset and its new owner.
type TransferPayload struct {
	AssetID  state.AssetID   `json:"asset_id"`
	NewOwner state.AccountID `json:"new_owner"`
}

// ListPayload sets or clears (nil price) a listing.
type ListPayload struct {
	AssetID state.AssetID  `json:"asset_id"`
	Price   *state.Balance `json:"price,omitempty"`
}

// BuyPayload names the asset to buy.
type BuyPayload struct {
	AssetID state.AssetID `json:"asset_id"`
}

// NewCreate builds a create command.
func NewCreate(caller state.AccountID) Command {
	return Command{Type: TypeCreate, Caller: caller}
}

// NewBreed builds a breed command.
func NewBreed(caller state.AccountID, parent1, parent2 state.AssetID) Command {
	return newCommand(TypeBreed, caller, BreedPayload{Parent1: parent1, Parent2: parent2})
}

// NewTransfer builds a transfer command.
func NewTransfer(caller, newOwner state.AccountID, id state.AssetID) Command {
	return newCommand(TypeTransfer, caller, TransferPayload{AssetID: id, NewOwner: newOwner})
}

// NewList builds a list command; a nil price delists.
func NewList(caller state.AccountID, id state.AssetID, price *state.Balance) Command {
	return newCommand(TypeList, caller, ListPayload{AssetID: id, Price: price})
}

// NewBuy builds a buy command.
func NewBuy(buyer state.AccountID, id state.AssetID) Command {
	return newCommand(TypeBuy, buyer, BuyPayload{AssetID: id})
}

func newCommand(t Type, caller state.AccountID, payload any) Command {
	payloadJSON, _ := json.Marshal(payload)
	return Command{Type: t, Caller: caller, PayloadJSON: payloadJSON}
}

// Decision is the pure outcome of deciding a command.
type Decision struct {
	Events      []event.Event
	Settlements []Settlement
	Rejections  []Rejection
}

// Settlement is a currency movement the host must complete before the
// decision's events may be committed.
type Settlement struct {
	From   state.AccountID
	To     state.AccountID
	Amount state.Balance
}

// Rejection captures why a command was declined.
type Rejection struct {
	Code     apperrors.Code
	Message  string
	Metadata map[string]string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// AcceptWithSettlement returns a decision whose events are committed only if
// the settlement succeeds.
func AcceptWithSettlement(settlement Settlement, events ...event.Event) Decision {
	return Decision{
		Events:      append([]event.Event(nil), events...),
		Settlements: []Settlement{settlement},
	}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// NewEvent copies the envelope fields from cmd into a new event.
func NewEvent(cmd Command, eventType event.Type, id state.AssetID, payload any) event.Event {
	payloadJSON, _ := json.Marshal(payload)
	return event.Event{
		Type:        eventType,
		Caller:      cmd.Caller,
		AssetID:     id,
		BlockNumber: cmd.BlockNumber,
		CallIndex:   cmd.CallIndex,
		RequestID:   cmd.RequestID,
		PayloadJSON: payloadJSON,
	}
}

// DecodePayload unmarshals the command payload into target, returning a
// rejection when the payload is malformed.
func DecodePayload(cmd Command, target any) (Rejection, bool) {
	if err := json.Unmarshal(cmd.PayloadJSON, target); err != nil {
		return Rejection{
			Code:    apperrors.CodeInvalidArgument,
			Message: "payload json must be valid",
		}, false
	}
	return Rejection{}, true
}
