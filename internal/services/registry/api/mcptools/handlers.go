package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/menagerie/internal/platform/errors"
	"github.com/louisbranch/menagerie/internal/platform/requestctx"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/command"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/engine"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
	"github.com/louisbranch/menagerie/internal/services/registry/storage"
)

const (
	requestIDMetaKey     = "request_id"
	errorCodeMetaKey     = "error_code"
	grpcCodeMetaKey      = "grpc_code"
	errorMetadataMetaKey = "error_metadata"
	localeMetaKey        = "locale"
)

// Registry executes calls and answers point queries.
type Registry interface {
	Execute(ctx context.Context, cmd command.Command) (engine.Result, error)
	Counter() state.AssetID
	Asset(id state.AssetID) (engine.Record, bool)
}

// Store answers the paged queries over persisted state.
type Store interface {
	storage.AssetSearcher
	storage.EventReader
}

// Wallet reports development-host balances.
type Wallet interface {
	Balance(account state.AccountID) state.Balance
	ExistentialDeposit() state.Balance
}

// Deps are the collaborators tool handlers run against. Locale selects the
// catalog used to render rejection messages.
type Deps struct {
	Registry Registry
	Store    Store
	Wallet   Wallet
	Locale   string
}

// AssetCreateHandler executes an asset create call.
func AssetCreateHandler(deps Deps) mcp.ToolHandlerFor[AssetCreateInput, AssetCreateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssetCreateInput) (*mcp.CallToolResult, AssetCreateResult, error) {
		ctx, requestID := requestctx.EnsureRequestID(ctx)
		caller, err := requireAccount("caller", input.Caller)
		if err != nil {
			return deps.toolError(requestID, err), AssetCreateResult{}, nil
		}
		result, err := deps.Registry.Execute(ctx, command.NewCreate(caller))
		if err != nil {
			return deps.toolError(requestID, err), AssetCreateResult{}, nil
		}
		return createdResult(requestID, result)
	}
}

// AssetBreedHandler executes an asset breed call.
func AssetBreedHandler(deps Deps) mcp.ToolHandlerFor[AssetBreedInput, AssetCreateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssetBreedInput) (*mcp.CallToolResult, AssetCreateResult, error) {
		ctx, requestID := requestctx.EnsureRequestID(ctx)
		caller, err := requireAccount("caller", input.Caller)
		if err != nil {
			return deps.toolError(requestID, err), AssetCreateResult{}, nil
		}
		result, err := deps.Registry.Execute(ctx, command.NewBreed(caller, state.AssetID(input.Parent1), state.AssetID(input.Parent2)))
		if err != nil {
			return deps.toolError(requestID, err), AssetCreateResult{}, nil
		}
		return createdResult(requestID, result)
	}
}

func createdResult(requestID string, result engine.Result) (*mcp.CallToolResult, AssetCreateResult, error) {
	evt, payload, err := firstPayload[event.AssetCreatedPayload](result, event.TypeAssetCreated)
	if err != nil {
		return nil, AssetCreateResult{}, err
	}
	return resultWithRequestID(requestID), AssetCreateResult{
		Asset: AssetResult{
			ID:     uint32(payload.AssetID),
			Genome: payload.Genome.String(),
			Owner:  string(payload.Owner),
		},
		Seq: evt.Seq,
	}, nil
}

// AssetTransferHandler executes an asset transfer call.
func AssetTransferHandler(deps Deps) mcp.ToolHandlerFor[AssetTransferInput, AssetTransferResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssetTransferInput) (*mcp.CallToolResult, AssetTransferResult, error) {
		ctx, requestID := requestctx.EnsureRequestID(ctx)
		caller, err := requireAccount("caller", input.Caller)
		if err != nil {
			return deps.toolError(requestID, err), AssetTransferResult{}, nil
		}
		to, err := requireAccount("to", input.To)
		if err != nil {
			return deps.toolError(requestID, err), AssetTransferResult{}, nil
		}
		if _, err := deps.Registry.Execute(ctx, command.NewTransfer(caller, to, state.AssetID(input.AssetID))); err != nil {
			return deps.toolError(requestID, err), AssetTransferResult{}, nil
		}
		return resultWithRequestID(requestID), AssetTransferResult{AssetID: input.AssetID, Owner: string(to)}, nil
	}
}

// AssetListHandler executes a list-for-sale call.
func AssetListHandler(deps Deps) mcp.ToolHandlerFor[AssetListInput, AssetListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssetListInput) (*mcp.CallToolResult, AssetListResult, error) {
		ctx, requestID := requestctx.EnsureRequestID(ctx)
		caller, err := requireAccount("caller", input.Caller)
		if err != nil {
			return deps.toolError(requestID, err), AssetListResult{}, nil
		}
		var price *state.Balance
		if input.Price != nil {
			if *input.Price > math.MaxInt64 {
				return deps.toolError(requestID, invalidArgument("price exceeds the storable maximum")), AssetListResult{}, nil
			}
			value := state.Balance(*input.Price)
			price = &value
		}
		if _, err := deps.Registry.Execute(ctx, command.NewList(caller, state.AssetID(input.AssetID), price)); err != nil {
			return deps.toolError(requestID, err), AssetListResult{}, nil
		}
		return resultWithRequestID(requestID), AssetListResult{
			AssetID: input.AssetID,
			ForSale: input.Price != nil,
			Price:   input.Price,
		}, nil
	}
}

// AssetBuyHandler executes a buy call.
func AssetBuyHandler(deps Deps) mcp.ToolHandlerFor[AssetBuyInput, AssetBuyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssetBuyInput) (*mcp.CallToolResult, AssetBuyResult, error) {
		ctx, requestID := requestctx.EnsureRequestID(ctx)
		buyer, err := requireAccount("buyer", input.Buyer)
		if err != nil {
			return deps.toolError(requestID, err), AssetBuyResult{}, nil
		}
		result, err := deps.Registry.Execute(ctx, command.NewBuy(buyer, state.AssetID(input.AssetID)))
		if err != nil {
			return deps.toolError(requestID, err), AssetBuyResult{}, nil
		}
		_, sold, err := firstPayload[event.SoldPayload](result, event.TypeSold)
		if err != nil {
			return nil, AssetBuyResult{}, err
		}
		return resultWithRequestID(requestID), AssetBuyResult{
			AssetID: uint32(sold.AssetID),
			Buyer:   string(sold.Buyer),
			Seller:  string(sold.Seller),
			Price:   uint64(sold.Price),
		}, nil
	}
}

// AssetGetHandler reads one asset from the registry.
func AssetGetHandler(deps Deps) mcp.ToolHandlerFor[AssetGetInput, AssetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssetGetInput) (*mcp.CallToolResult, AssetResult, error) {
		_, requestID := requestctx.EnsureRequestID(ctx)
		record, ok := deps.Registry.Asset(state.AssetID(input.AssetID))
		if !ok {
			return deps.toolError(requestID, apperrors.New(apperrors.CodeNotFound,
				fmt.Sprintf("asset %d not found", input.AssetID))), AssetResult{}, nil
		}
		return resultWithRequestID(requestID), assetResult(record.ID, record.Genome, record.Owner, record.Price), nil
	}
}

// RegistryCounterHandler reads the registry counter.
func RegistryCounterHandler(deps Deps) mcp.ToolHandlerFor[RegistryCounterInput, RegistryCounterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ RegistryCounterInput) (*mcp.CallToolResult, RegistryCounterResult, error) {
		_, requestID := requestctx.EnsureRequestID(ctx)
		return resultWithRequestID(requestID), RegistryCounterResult{
			Counter: uint32(deps.Registry.Counter()),
			Max:     uint32(state.MaxAssetID),
		}, nil
	}
}

// AssetSearchHandler pages through persisted assets.
func AssetSearchHandler(deps Deps) mcp.ToolHandlerFor[AssetSearchInput, AssetSearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssetSearchInput) (*mcp.CallToolResult, AssetSearchResult, error) {
		ctx, requestID := requestctx.EnsureRequestID(ctx)
		page, err := deps.Store.SearchAssets(ctx, input.Filter, input.PageSize, input.PageToken)
		if err != nil {
			return deps.toolError(requestID, storageError(err)), AssetSearchResult{}, nil
		}
		out := AssetSearchResult{
			Assets:        make([]AssetResult, 0, len(page.Assets)),
			NextPageToken: page.NextPageToken,
		}
		for _, record := range page.Assets {
			out.Assets = append(out.Assets, assetResult(record.ID, record.Genome, record.Owner, record.Price))
		}
		return resultWithRequestID(requestID), out, nil
	}
}

// EventListHandler reads the event journal.
func EventListHandler(deps Deps) mcp.ToolHandlerFor[EventListInput, EventListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventListInput) (*mcp.CallToolResult, EventListResult, error) {
		ctx, requestID := requestctx.EnsureRequestID(ctx)
		events, err := deps.Store.ListEvents(ctx, storage.EventQuery{
			AfterSeq: input.AfterSeq,
			Limit:    input.Limit,
			Filter:   input.Filter,
		})
		if err != nil {
			return deps.toolError(requestID, storageError(err)), EventListResult{}, nil
		}
		out := EventListResult{Events: make([]EventResult, 0, len(events))}
		for _, evt := range events {
			out.Events = append(out.Events, EventResult{
				Seq:         evt.Seq,
				Type:        string(evt.Type),
				Caller:      string(evt.Caller),
				AssetID:     uint32(evt.AssetID),
				BlockNumber: evt.BlockNumber,
				CallIndex:   evt.CallIndex,
				RequestID:   evt.RequestID,
				Timestamp:   evt.Timestamp.UTC().Format(time.RFC3339Nano),
				Payload:     string(evt.PayloadJSON),
				ChainHash:   evt.ChainHash,
			})
		}
		return resultWithRequestID(requestID), out, nil
	}
}

// BalanceGetHandler reads a development-host balance.
func BalanceGetHandler(deps Deps) mcp.ToolHandlerFor[BalanceGetInput, BalanceGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BalanceGetInput) (*mcp.CallToolResult, BalanceGetResult, error) {
		_, requestID := requestctx.EnsureRequestID(ctx)
		account, err := requireAccount("account", input.Account)
		if err != nil {
			return deps.toolError(requestID, err), BalanceGetResult{}, nil
		}
		return resultWithRequestID(requestID), BalanceGetResult{
			Account:            string(account),
			Free:               uint64(deps.Wallet.Balance(account)),
			ExistentialDeposit: uint64(deps.Wallet.ExistentialDeposit()),
		}, nil
	}
}

func assetResult(id state.AssetID, genome state.Genome, owner state.AccountID, price *state.Balance) AssetResult {
	out := AssetResult{
		ID:     uint32(id),
		Genome: genome.String(),
		Owner:  string(owner),
	}
	if price != nil {
		value := uint64(*price)
		out.Price = &value
		out.ForSale = true
	}
	return out
}

func requireAccount(field, raw string) (state.AccountID, error) {
	account := strings.TrimSpace(raw)
	if account == "" {
		return "", invalidArgument(field + " is required")
	}
	return state.AccountID(account), nil
}

func invalidArgument(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument, reason, map[string]string{"reason": reason})
}

// storageError maps query failures caused by the caller's input to
// INVALID_ARGUMENT; the rest stay internal.
func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidFilter):
		return apperrors.WrapWithMetadata(apperrors.CodeInvalidArgument, "invalid filter",
			map[string]string{"reason": "invalid filter"}, err)
	case errors.Is(err, storage.ErrInvalidPageToken):
		return apperrors.WrapWithMetadata(apperrors.CodeInvalidArgument, "invalid page token",
			map[string]string{"reason": "invalid page token"}, err)
	}
	return err
}

func firstPayload[T any](result engine.Result, eventType event.Type) (event.Event, T, error) {
	var payload T
	for _, evt := range result.Events {
		if evt.Type != eventType {
			continue
		}
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return event.Event{}, payload, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return evt, payload, nil
	}
	return event.Event{}, payload, fmt.Errorf("result is missing a %s event", eventType)
}

func resultWithRequestID(requestID string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Meta: map[string]any{requestIDMetaKey: requestID},
	}
}

// toolError renders err as a tool-level error result carrying the same
// status code and details a gRPC client would receive. Unexpected failures
// are logged with the request id since their text is replaced by a generic
// message.
func (d Deps) toolError(requestID string, err error) *mcp.CallToolResult {
	if apperrors.IsCode(err, apperrors.CodeUnknown) {
		log.Printf("mcp tool failed: request_id=%s err=%v", requestID, err)
	}
	st := status.Convert(apperrors.HandleError(err, d.Locale))
	meta := map[string]any{
		requestIDMetaKey: requestID,
		errorCodeMetaKey: string(apperrors.CodeUnknown),
		grpcCodeMetaKey:  st.Code().String(),
	}
	text := apperrors.LocalizedMessage(err, d.Locale)
	for _, detail := range st.Details() {
		switch detail := detail.(type) {
		case *errdetails.ErrorInfo:
			meta[errorCodeMetaKey] = detail.GetReason()
			if len(detail.GetMetadata()) > 0 {
				meta[errorMetadataMetaKey] = detail.GetMetadata()
			}
		case *errdetails.LocalizedMessage:
			text = detail.GetMessage()
			meta[localeMetaKey] = detail.GetLocale()
		}
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		Meta:    meta,
	}
}
