package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/menagerie/internal/platform/errors"
	"github.com/louisbranch/menagerie/internal/platform/requestctx"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/asset"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/command"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/entropy"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/market"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/ownership"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
)

const tracerName = "github.com/louisbranch/menagerie/internal/services/registry/domain/engine"

var (
	// ErrStateRequired indicates a missing base state.
	ErrStateRequired = errors.New("registry state is required")
	// ErrBlocksRequired indicates a missing block source.
	ErrBlocksRequired = errors.New("block source is required")
	// ErrCurrencyRequired indicates a settlement with no currency transfer.
	ErrCurrencyRequired = errors.New("currency transfer is required")
)

// ExistenceRequirement tells the ledger whether the payer may be reaped.
type ExistenceRequirement int

const (
	// KeepAlive fails a transfer that would leave the payer below the
	// existence threshold.
	KeepAlive ExistenceRequirement = iota
	// AllowDeath lets the payer fall below the threshold.
	AllowDeath
)

// String names the requirement.
func (r ExistenceRequirement) String() string {
	if r == AllowDeath {
		return "allow_death"
	}
	return "keep_alive"
}

// CurrencyTransfer moves host currency between accounts.
type CurrencyTransfer interface {
	Transfer(ctx context.Context, from, to state.AccountID, amount state.Balance, req ExistenceRequirement) error
}

// Stamp is the block context handed to one call.
type Stamp struct {
	Block     uint64
	Seed      entropy.Seed
	CallIndex uint32
}

// BlockSource is the randomness source of the block being executed. Stamp
// reads the block number and seed and takes the next call index in one step,
// so a block advance never splits them.
type BlockSource interface {
	entropy.RandomnessSource
	Stamp() Stamp
}

// Journal durably records a call's state changes and events together.
type Journal interface {
	Commit(ctx context.Context, changes state.ChangeSet, events []event.Event) ([]event.Event, error)
}

// Config wires the engine's collaborators.
type Config struct {
	State    *state.State
	Blocks   BlockSource
	Currency CurrencyTransfer
	// Journal is optional; without it changes live only in memory.
	Journal Journal
	Now     func() time.Time
	Tracer  trace.Tracer
}

// Result captures an accepted call.
type Result struct {
	AssetID state.AssetID
	Events  []event.Event
}

type decideFunc func(state.View, command.Command) command.Decision

type foldFunc func(*state.Overlay, event.Event) error

// Engine executes registry calls serially against one state.
type Engine struct {
	mu       sync.RWMutex
	state    *state.State
	blocks   BlockSource
	currency CurrencyTransfer
	journal  Journal
	now      func() time.Time
	tracer   trace.Tracer
	deciders map[command.Type]decideFunc
	folds    map[event.Type]foldFunc
}

// New validates cfg and returns an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.State == nil {
		return nil, ErrStateRequired
	}
	if cfg.Blocks == nil {
		return nil, ErrBlocksRequired
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Engine{
		state:    cfg.State,
		blocks:   cfg.Blocks,
		currency: cfg.Currency,
		journal:  cfg.Journal,
		now:      now,
		tracer:   tracer,
		deciders: map[command.Type]decideFunc{
			command.TypeCreate:   asset.Decide,
			command.TypeBreed:    asset.Decide,
			command.TypeTransfer: ownership.Decide,
			command.TypeList:     market.Decide,
			command.TypeBuy:      market.Decide,
		},
		folds: map[event.Type]foldFunc{
			event.TypeAssetCreated: asset.Fold,
			event.TypeTransferred:  ownership.Fold,
			event.TypeListed:       market.Fold,
			event.TypeSold:         market.Fold,
		},
	}, nil
}

// Execute runs one call to completion. Domain rejections come back as
// *apperrors.Error values carrying the rejection code.
func (e *Engine) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.tracer.Start(ctx, "registry."+string(cmd.Type), trace.WithAttributes(
		attribute.String("registry.call", string(cmd.Type)),
		attribute.String("registry.caller", string(cmd.Caller)),
	))
	defer span.End()

	result, err := e.execute(ctx, cmd)
	if err != nil {
		span.SetAttributes(attribute.String("registry.error_code", string(apperrors.GetCode(err))))
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.Int64("registry.asset_id", int64(result.AssetID)))
	return result, nil
}

func (e *Engine) execute(ctx context.Context, cmd command.Command) (Result, error) {
	decide, ok := e.deciders[cmd.Type]
	if !ok {
		return Result{}, apperrors.WithMetadata(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unknown call %q", cmd.Type), map[string]string{"reason": "unknown call"})
	}

	stamp := e.blocks.Stamp()
	cmd.BlockNumber = stamp.Block
	cmd.CallIndex = stamp.CallIndex
	cmd.Entropy = entropy.Derive(stamp.Seed, cmd.Caller, stamp.CallIndex)
	if cmd.RequestID == "" {
		cmd.RequestID = requestctx.RequestIDFromContext(ctx)
	}

	overlay := state.NewOverlay(e.state)
	decision := decide(overlay, cmd)
	if len(decision.Rejections) > 0 {
		r := decision.Rejections[0]
		return Result{}, apperrors.WithMetadata(r.Code, r.Message, r.Metadata)
	}
	if len(decision.Events) == 0 {
		return Result{}, fmt.Errorf("%s accepted with no events", cmd.Type)
	}

	now := e.now().UTC()
	events := make([]event.Event, 0, len(decision.Events))
	for _, evt := range decision.Events {
		evt.Timestamp = now
		fold, ok := e.folds[evt.Type]
		if !ok {
			return Result{}, fmt.Errorf("no fold registered for %s", evt.Type)
		}
		if err := fold(overlay, evt); err != nil {
			return Result{}, fmt.Errorf("fold %s: %w", evt.Type, err)
		}
		events = append(events, evt)
	}

	settled, err := e.settle(ctx, events[0].AssetID, decision.Settlements)
	if err != nil {
		return Result{}, err
	}

	changes := overlay.Changes()
	if e.journal != nil {
		stored, err := e.journal.Commit(ctx, changes, events)
		if err != nil {
			e.refund(ctx, settled)
			return Result{}, fmt.Errorf("commit %s: %w", cmd.Type, err)
		}
		events = stored
	}
	e.state.Apply(changes)

	return Result{AssetID: events[0].AssetID, Events: events}, nil
}

// settle runs each settlement with KeepAlive. When one fails, the ones
// already made are refunded before returning.
func (e *Engine) settle(ctx context.Context, id state.AssetID, settlements []command.Settlement) ([]command.Settlement, error) {
	if len(settlements) == 0 {
		return nil, nil
	}
	if e.currency == nil {
		return nil, ErrCurrencyRequired
	}
	done := make([]command.Settlement, 0, len(settlements))
	for _, s := range settlements {
		if err := e.currency.Transfer(ctx, s.From, s.To, s.Amount, KeepAlive); err != nil {
			e.refund(ctx, done)
			return nil, apperrors.WrapWithMetadata(apperrors.CodeCurrencyTransferFailed,
				"currency transfer failed", market.SettlementMetadata(id, s), err)
		}
		done = append(done, s)
	}
	return done, nil
}

// refund reverses settlements newest first. Under serial execution the payee
// still holds the funds, so AllowDeath cannot fail for balance reasons.
func (e *Engine) refund(ctx context.Context, settled []command.Settlement) {
	for i := len(settled) - 1; i >= 0; i-- {
		s := settled[i]
		if err := e.currency.Transfer(ctx, s.To, s.From, s.Amount, AllowDeath); err != nil {
			err = fmt.Errorf("refund %d from %s to %s: %w", s.Amount, s.To, s.From, err)
			log.Printf("registry: %v", err)
			trace.SpanFromContext(ctx).RecordError(err)
		}
	}
}
