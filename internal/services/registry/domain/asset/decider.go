// Package asset decides create and breed calls and folds new assets into
// state.
package asset

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/menagerie/internal/platform/errors"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/command"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/entropy"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

// Decide returns the decision for a create or breed command.
func Decide(view state.View, cmd command.Command) command.Decision {
	switch cmd.Type {
	case command.TypeCreate:
		return decideCreate(view, cmd)
	case command.TypeBreed:
		return decideBreed(view, cmd)
	default:
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeInvalidArgument,
			Message: fmt.Sprintf("asset decider does not handle %s", cmd.Type),
		})
	}
}

func decideCreate(view state.View, cmd command.Command) command.Decision {
	id, rejection, ok := nextID(view)
	if !ok {
		return command.Reject(rejection)
	}
	return command.Accept(command.NewEvent(cmd, event.TypeAssetCreated, id, event.AssetCreatedPayload{
		AssetID: id,
		Owner:   cmd.Caller,
		Genome:  state.Genome(cmd.Entropy),
	}))
}

func decideBreed(view state.View, cmd command.Command) command.Decision {
	var payload command.BreedPayload
	if rejection, ok := command.DecodePayload(cmd, &payload); !ok {
		return command.Reject(rejection)
	}
	if payload.Parent1 == payload.Parent2 {
		return command.Reject(command.Rejection{
			Code:     apperrors.CodeSameParentIndex,
			Message:  "parents must be distinct assets",
			Metadata: map[string]string{"asset_id": payload.Parent1.String()},
		})
	}
	genome1, ok := view.Genome(payload.Parent1)
	if !ok {
		return command.Reject(invalidParent(payload.Parent1))
	}
	genome2, ok := view.Genome(payload.Parent2)
	if !ok {
		return command.Reject(invalidParent(payload.Parent2))
	}
	id, rejection, ok := nextID(view)
	if !ok {
		return command.Reject(rejection)
	}
	return command.Accept(command.NewEvent(cmd, event.TypeAssetCreated, id, event.AssetCreatedPayload{
		AssetID: id,
		Owner:   cmd.Caller,
		Genome:  Mix(cmd.Entropy, genome1, genome2),
		Parents: []state.AssetID{payload.Parent1, payload.Parent2},
	}))
}

// Mix takes each bit from parent1 where the selector bit is set and from
// parent2 otherwise.
func Mix(selector entropy.Value, parent1, parent2 state.Genome) state.Genome {
	var out state.Genome
	for i := range out {
		out[i] = (selector[i] & parent1[i]) | (^selector[i] & parent2[i])
	}
	return out
}

func nextID(view state.View) (state.AssetID, command.Rejection, bool) {
	id := view.Counter()
	if id == state.MaxAssetID {
		return 0, command.Rejection{
			Code:    apperrors.CodeCounterOverflow,
			Message: "asset counter overflow",
		}, false
	}
	return id, command.Rejection{}, true
}

func invalidParent(id state.AssetID) command.Rejection {
	return command.Rejection{
		Code:     apperrors.CodeInvalidAssetIndex,
		Message:  fmt.Sprintf("asset %d does not exist", id),
		Metadata: map[string]string{"asset_id": id.String()},
	}
}

// Fold stages a created asset: genome, first owner, and the advanced counter.
func Fold(overlay *state.Overlay, evt event.Event) error {
	if evt.Type != event.TypeAssetCreated {
		return fmt.Errorf("asset fold does not handle %s", evt.Type)
	}
	var payload event.AssetCreatedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	if payload.AssetID == state.MaxAssetID {
		return fmt.Errorf("asset id %d is reserved", payload.AssetID)
	}
	overlay.PutGenome(payload.AssetID, payload.Genome)
	overlay.PutOwner(payload.AssetID, payload.Owner)
	overlay.SetCounter(payload.AssetID + 1)
	return nil
}
