// Package sqlite provides a SQLite-backed registry store: the four registry
// maps plus a hash-chained event journal, written in one transaction per call.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/louisbranch/menagerie/internal/platform/pagination"
	"github.com/louisbranch/menagerie/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
	"github.com/louisbranch/menagerie/internal/services/registry/storage"
	"github.com/louisbranch/menagerie/internal/services/registry/storage/filter"
	"github.com/louisbranch/menagerie/internal/services/registry/storage/sqlite/migrations"
)

var assetPages = pagination.PageSizeConfig{Default: 25, Max: 200}

var eventPages = pagination.PageSizeConfig{Default: 50, Max: 500}

// Store persists registry state in SQLite.
type Store struct {
	sqlDB  *sql.DB
	assets *filter.Schema
	events *filter.Schema
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite registry store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	assets, err := filter.Assets()
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	events, err := filter.Events()
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Store{sqlDB: sqlDB, assets: assets, events: events}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadState reads the counter and the three registry maps.
func (s *Store) LoadState(ctx context.Context) (state.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return state.Snapshot{}, err
	}
	if s == nil || s.sqlDB == nil {
		return state.Snapshot{}, fmt.Errorf("storage is not configured")
	}
	snapshot := state.Snapshot{
		Genomes: map[state.AssetID]state.Genome{},
		Owners:  map[state.AssetID]state.AccountID{},
		Prices:  map[state.AssetID]state.Balance{},
	}

	var next int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT next_id FROM asset_counter WHERE id = 1`).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return state.Snapshot{}, fmt.Errorf("load counter: %w", err)
	default:
		snapshot.Counter = state.AssetID(next)
	}

	if err := s.scanEach(ctx, `SELECT asset_id, genome FROM asset_genomes`, func(rows *sql.Rows) error {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return err
		}
		genome, err := genomeFromBytes(raw)
		if err != nil {
			return fmt.Errorf("asset %d: %w", id, err)
		}
		snapshot.Genomes[state.AssetID(id)] = genome
		return nil
	}); err != nil {
		return state.Snapshot{}, fmt.Errorf("load genomes: %w", err)
	}

	if err := s.scanEach(ctx, `SELECT asset_id, owner FROM asset_owners`, func(rows *sql.Rows) error {
		var id int64
		var owner string
		if err := rows.Scan(&id, &owner); err != nil {
			return err
		}
		snapshot.Owners[state.AssetID(id)] = state.AccountID(owner)
		return nil
	}); err != nil {
		return state.Snapshot{}, fmt.Errorf("load owners: %w", err)
	}

	if err := s.scanEach(ctx, `SELECT asset_id, price FROM asset_prices`, func(rows *sql.Rows) error {
		var id, price int64
		if err := rows.Scan(&id, &price); err != nil {
			return err
		}
		snapshot.Prices[state.AssetID(id)] = state.Balance(price)
		return nil
	}); err != nil {
		return state.Snapshot{}, fmt.Errorf("load prices: %w", err)
	}
	return snapshot, nil
}

func (s *Store) scanEach(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Commit writes one call's change set and appends its events to the journal
// in a single transaction. The returned events carry their sequence numbers
// and hashes.
func (s *Store) Commit(ctx context.Context, changes state.ChangeSet, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	for id, price := range changes.Prices {
		if price != nil && uint64(*price) > math.MaxInt64 {
			return nil, fmt.Errorf("asset %d: %w", id, storage.ErrPriceOutOfRange)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := writeChanges(ctx, tx, changes); err != nil {
		return nil, describeConstraint(err)
	}
	stored, err := appendEvents(ctx, tx, events)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

func writeChanges(ctx context.Context, tx *sql.Tx, changes state.ChangeSet) error {
	if changes.Counter != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO asset_counter (id, next_id) VALUES (1, ?)
			 ON CONFLICT(id) DO UPDATE SET next_id = excluded.next_id`,
			int64(*changes.Counter),
		); err != nil {
			return fmt.Errorf("write counter: %w", err)
		}
	}
	for id, genome := range changes.Genomes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO asset_genomes (asset_id, genome) VALUES (?, ?)`,
			int64(id), genome[:],
		); err != nil {
			return fmt.Errorf("write genome %d: %w", id, err)
		}
	}
	for id, owner := range changes.Owners {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO asset_owners (asset_id, owner) VALUES (?, ?)
			 ON CONFLICT(asset_id) DO UPDATE SET owner = excluded.owner`,
			int64(id), string(owner),
		); err != nil {
			return fmt.Errorf("write owner %d: %w", id, err)
		}
	}
	for id, price := range changes.Prices {
		if price == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM asset_prices WHERE asset_id = ?`, int64(id)); err != nil {
				return fmt.Errorf("clear price %d: %w", id, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO asset_prices (asset_id, price) VALUES (?, ?)
			 ON CONFLICT(asset_id) DO UPDATE SET price = excluded.price`,
			int64(id), int64(*price),
		); err != nil {
			return fmt.Errorf("write price %d: %w", id, err)
		}
	}
	return nil
}

func appendEvents(ctx context.Context, tx *sql.Tx, events []event.Event) ([]event.Event, error) {
	var lastSeq int64
	var prevChain string
	err := tx.QueryRowContext(ctx,
		`SELECT seq, chain_hash FROM registry_events ORDER BY seq DESC LIMIT 1`,
	).Scan(&lastSeq, &prevChain)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read journal head: %w", err)
	}

	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		lastSeq++
		evt.Seq = uint64(lastSeq)
		// The journal keeps millisecond timestamps; hash what is stored.
		evt.Timestamp = fromMillis(toMillis(evt.Timestamp))
		sealed, err := event.Seal(evt, prevChain)
		if err != nil {
			return nil, fmt.Errorf("seal event %d: %w", evt.Seq, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO registry_events (
			   seq, event_type, caller, asset_id, block_number, call_index,
			   request_id, timestamp, payload_json, event_hash, chain_hash
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(sealed.Seq),
			string(sealed.Type),
			string(sealed.Caller),
			int64(sealed.AssetID),
			int64(sealed.BlockNumber),
			int64(sealed.CallIndex),
			sealed.RequestID,
			toMillis(sealed.Timestamp),
			sealed.PayloadJSON,
			sealed.Hash,
			sealed.ChainHash,
		); err != nil {
			return nil, fmt.Errorf("append event %d: %w", sealed.Seq, err)
		}
		prevChain = sealed.ChainHash
		stored = append(stored, sealed)
	}
	return stored, nil
}

// SearchAssets returns one page of assets in id order matching filterStr.
func (s *Store) SearchAssets(ctx context.Context, filterStr string, pageSize int, pageToken string) (storage.AssetPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.AssetPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AssetPage{}, fmt.Errorf("storage is not configured")
	}
	cond, err := s.assets.Parse(filterStr)
	if err != nil {
		return storage.AssetPage{}, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
	}
	after, hasCursor, err := pagination.DecodeCursor(strings.TrimSpace(pageToken))
	if err != nil {
		return storage.AssetPage{}, storage.ErrInvalidPageToken
	}
	pageSize = pagination.ClampPageSize(pageSize, assetPages)

	var where []string
	var params []any
	if hasCursor {
		where = append(where, "g.asset_id > ?")
		params = append(params, int64(after))
	}
	if !cond.Empty() {
		where = append(where, cond.Clause)
		params = append(params, cond.Params...)
	}
	query := `SELECT g.asset_id, g.genome, o.owner, p.price
	            FROM asset_genomes g
	            JOIN asset_owners o ON o.asset_id = g.asset_id
	            LEFT JOIN asset_prices p ON p.asset_id = g.asset_id`
	if len(where) > 0 {
		query += "\n WHERE " + strings.Join(where, " AND ")
	}
	query += "\n ORDER BY g.asset_id ASC LIMIT ?"
	params = append(params, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.AssetPage{}, fmt.Errorf("search assets: %w", err)
	}
	defer rows.Close()

	page := storage.AssetPage{Assets: make([]storage.AssetRecord, 0, pageSize)}
	for rows.Next() {
		var id int64
		var raw []byte
		var owner string
		var price sql.NullInt64
		if err := rows.Scan(&id, &raw, &owner, &price); err != nil {
			return storage.AssetPage{}, fmt.Errorf("search assets: %w", err)
		}
		genome, err := genomeFromBytes(raw)
		if err != nil {
			return storage.AssetPage{}, fmt.Errorf("asset %d: %w", id, err)
		}
		record := storage.AssetRecord{
			ID:     state.AssetID(id),
			Genome: genome,
			Owner:  state.AccountID(owner),
		}
		if price.Valid {
			value := state.Balance(price.Int64)
			record.Price = &value
		}
		page.Assets = append(page.Assets, record)
	}
	if err := rows.Err(); err != nil {
		return storage.AssetPage{}, fmt.Errorf("search assets: %w", err)
	}
	if len(page.Assets) > pageSize {
		page.NextPageToken = pagination.EncodeCursor(uint64(page.Assets[pageSize-1].ID))
		page.Assets = page.Assets[:pageSize]
	}
	return page, nil
}

// ListEvents returns journal entries after query.AfterSeq in sequence order.
func (s *Store) ListEvents(ctx context.Context, query storage.EventQuery) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	cond, err := s.events.Parse(query.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
	}
	limit := pagination.ClampPageSize(query.Limit, eventPages)

	where := "seq > ?"
	params := []any{int64(query.AfterSeq)}
	if !cond.Empty() {
		where += " AND " + cond.Clause
		params = append(params, cond.Params...)
	}
	params = append(params, limit)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, event_type, caller, asset_id, block_number, call_index,
		        request_id, timestamp, payload_json, event_hash, chain_hash
		   FROM registry_events
		  WHERE `+where+`
		  ORDER BY seq ASC
		  LIMIT ?`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var (
			seq, assetID, block, callIndex, ts int64
			evt                                event.Event
			eventType, caller                  string
		)
		if err := rows.Scan(&seq, &eventType, &caller, &assetID, &block, &callIndex,
			&evt.RequestID, &ts, &evt.PayloadJSON, &evt.Hash, &evt.ChainHash); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Type = event.Type(eventType)
		evt.Caller = state.AccountID(caller)
		evt.AssetID = state.AssetID(assetID)
		evt.BlockNumber = uint64(block)
		evt.CallIndex = uint32(callIndex)
		evt.Timestamp = fromMillis(ts)
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// HeadChainHash returns the chain hash of the newest journal entry, or "" for
// an empty journal.
func (s *Store) HeadChainHash(ctx context.Context) (uint64, string, error) {
	var seq int64
	var chain string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT seq, chain_hash FROM registry_events ORDER BY seq DESC LIMIT 1`,
	).Scan(&seq, &chain)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("read journal head: %w", err)
	}
	return uint64(seq), chain, nil
}

// VerifyJournal re-derives every event hash and chain link in sequence order
// and returns the number of events checked.
func (s *Store) VerifyJournal(ctx context.Context) (uint64, error) {
	var afterSeq, checked uint64
	prev := ""
	for {
		events, err := s.ListEvents(ctx, storage.EventQuery{AfterSeq: afterSeq, Limit: eventPages.Max})
		if err != nil {
			return checked, fmt.Errorf("read journal: %w", err)
		}
		if len(events) == 0 {
			return checked, nil
		}
		if err := event.VerifyChain(events, prev); err != nil {
			return checked, fmt.Errorf("verify journal: %w", err)
		}
		last := events[len(events)-1]
		checked += uint64(len(events))
		afterSeq = last.Seq
		prev = last.ChainHash
	}
}

func genomeFromBytes(raw []byte) (state.Genome, error) {
	var genome state.Genome
	if len(raw) != state.GenomeSize {
		return genome, fmt.Errorf("genome has %d bytes, want %d", len(raw), state.GenomeSize)
	}
	copy(genome[:], raw)
	return genome, nil
}

// describeConstraint annotates SQLite constraint failures so a rejected write
// reads as a storage invariant rather than an I/O failure.
func describeConstraint(err error) error {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("registry row already exists: %w", err)
	case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("registry row references a missing asset: %w", err)
	case sqlite3lib.SQLITE_CONSTRAINT_CHECK:
		return fmt.Errorf("registry row violates a check: %w", err)
	}
	return err
}

var _ storage.Store = (*Store)(nil)
