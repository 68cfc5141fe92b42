// Package ownership decides transfers and folds owner changes.
package ownership

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/menagerie/internal/platform/errors"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/command"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

// Decide returns the decision for a transfer command.
//
// A self transfer is rejected before ownership is looked at. Any listing on
// the asset is left in place.
func Decide(view state.View, cmd command.Command) command.Decision {
	if cmd.Type != command.TypeTransfer {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeInvalidArgument,
			Message: fmt.Sprintf("ownership decider does not handle %s", cmd.Type),
		})
	}
	var payload command.TransferPayload
	if rejection, ok := command.DecodePayload(cmd, &payload); !ok {
		return command.Reject(rejection)
	}
	if payload.NewOwner == cmd.Caller {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeAlreadyOwned,
			Message: "cannot transfer an asset to its current holder",
			Metadata: map[string]string{
				"asset_id": payload.AssetID.String(),
				"owner":    string(cmd.Caller),
			},
		})
	}
	if rejection, ok := RequireOwner(view, payload.AssetID, cmd.Caller); !ok {
		return command.Reject(rejection)
	}
	return command.Accept(command.NewEvent(cmd, event.TypeTransferred, payload.AssetID, event.TransferredPayload{
		AssetID: payload.AssetID,
		From:    cmd.Caller,
		To:      payload.NewOwner,
	}))
}

// RequireOwner rejects with NotOwner unless caller owns id. A missing asset
// has no owner and is rejected the same way.
func RequireOwner(view state.View, id state.AssetID, caller state.AccountID) (command.Rejection, bool) {
	owner, ok := view.Owner(id)
	if ok && owner == caller {
		return command.Rejection{}, true
	}
	return command.Rejection{
		Code:     apperrors.CodeNotOwner,
		Message:  fmt.Sprintf("%s does not own asset %d", caller, id),
		Metadata: map[string]string{"asset_id": id.String()},
	}, false
}

// Fold stages the new owner of a transferred asset.
func Fold(overlay *state.Overlay, evt event.Event) error {
	if evt.Type != event.TypeTransferred {
		return fmt.Errorf("ownership fold does not handle %s", evt.Type)
	}
	var payload event.TransferredPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	overlay.PutOwner(payload.AssetID, payload.To)
	return nil
}
