// Package market decides listings and purchases and folds their effects.
package market

import (
	"encoding/json"
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/menagerie/internal/platform/errors"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/command"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/ownership"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

// Decide returns the decision for a list or buy command.
func Decide(view state.View, cmd command.Command) command.Decision {
	switch cmd.Type {
	case command.TypeList:
		return decideList(view, cmd)
	case command.TypeBuy:
		return decideBuy(view, cmd)
	default:
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeInvalidArgument,
			Message: fmt.Sprintf("market decider does not handle %s", cmd.Type),
		})
	}
}

func decideList(view state.View, cmd command.Command) command.Decision {
	var payload command.ListPayload
	if rejection, ok := command.DecodePayload(cmd, &payload); !ok {
		return command.Reject(rejection)
	}
	if rejection, ok := ownership.RequireOwner(view, payload.AssetID, cmd.Caller); !ok {
		return command.Reject(rejection)
	}
	return command.Accept(command.NewEvent(cmd, event.TypeListed, payload.AssetID, event.ListedPayload{
		AssetID: payload.AssetID,
		Owner:   cmd.Caller,
		Price:   payload.Price,
	}))
}

// decideBuy checks, in order: the asset has an owner, it carries a price, and
// the buyer is not that owner. The settlement pays the current owner, which
// after a plain transfer may differ from whoever set the price.
func decideBuy(view state.View, cmd command.Command) command.Decision {
	var payload command.BuyPayload
	if rejection, ok := command.DecodePayload(cmd, &payload); !ok {
		return command.Reject(rejection)
	}
	id := payload.AssetID
	owner, ok := view.Owner(id)
	if !ok {
		return command.Reject(command.Rejection{
			Code:     apperrors.CodeNotOwner,
			Message:  fmt.Sprintf("asset %d has no owner", id),
			Metadata: map[string]string{"asset_id": id.String()},
		})
	}
	price, ok := view.Price(id)
	if !ok {
		return command.Reject(command.Rejection{
			Code:     apperrors.CodeNotForSale,
			Message:  fmt.Sprintf("asset %d is not listed", id),
			Metadata: map[string]string{"asset_id": id.String()},
		})
	}
	if owner == cmd.Caller {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeAlreadyOwned,
			Message: fmt.Sprintf("%s already owns asset %d", owner, id),
			Metadata: map[string]string{
				"asset_id": id.String(),
				"owner":    string(owner),
			},
		})
	}
	return command.AcceptWithSettlement(
		command.Settlement{From: cmd.Caller, To: owner, Amount: price},
		command.NewEvent(cmd, event.TypeSold, id, event.SoldPayload{
			AssetID: id,
			Buyer:   cmd.Caller,
			Seller:  owner,
			Price:   price,
		}),
	)
}

// SettlementMetadata describes a settlement for error templating.
func SettlementMetadata(id state.AssetID, s command.Settlement) map[string]string {
	return map[string]string{
		"asset_id": id.String(),
		"amount":   strconv.FormatUint(uint64(s.Amount), 10),
		"from":     string(s.From),
		"to":       string(s.To),
	}
}

// Fold stages listing updates and completed sales.
func Fold(overlay *state.Overlay, evt event.Event) error {
	switch evt.Type {
	case event.TypeListed:
		var payload event.ListedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		overlay.SetPrice(payload.AssetID, payload.Price)
		return nil
	case event.TypeSold:
		var payload event.SoldPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		overlay.PutOwner(payload.AssetID, payload.Buyer)
		overlay.SetPrice(payload.AssetID, nil)
		return nil
	default:
		return fmt.Errorf("market fold does not handle %s", evt.Type)
	}
}
