// Package inspect prints a read-only view of a registry database: counter,
// journal integrity, assets, and recent events.
package inspect

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	entrypoint "github.com/louisbranch/menagerie/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/menagerie/internal/platform/grpc"
	"github.com/louisbranch/menagerie/internal/platform/timeouts"
	server "github.com/louisbranch/menagerie/internal/services/registry/app"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
	"github.com/louisbranch/menagerie/internal/services/registry/storage"
	registrysqlite "github.com/louisbranch/menagerie/internal/services/registry/storage/sqlite"
)

// Config holds inspect command configuration.
type Config struct {
	DBPath    string `env:"REGISTRY_DB_PATH" envDefault:"data/registry.db"`
	Filter    string
	PageSize  int
	PageToken string
	Events    int
	// HealthAddr is a running registry's gRPC health address; empty skips
	// the probe.
	HealthAddr string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Registry SQLite database path")
	fs.StringVar(&cfg.Filter, "filter", "", "AIP-160 asset filter, e.g. 'owner = \"alice\" AND listed'")
	fs.IntVar(&cfg.PageSize, "page-size", 25, "Assets per page")
	fs.StringVar(&cfg.PageToken, "page-token", "", "Page token printed by a previous run")
	fs.IntVar(&cfg.Events, "events", 10, "Recent journal events to show (0 hides them)")
	fs.StringVar(&cfg.HealthAddr, "health", "", "Probe a running registry's gRPC health address, e.g. localhost:8096")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the database and writes the report to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return fmt.Errorf("registry database %s: %w", cfg.DBPath, err)
	}
	store, err := registrysqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := Report(ctx, store, cfg, out); err != nil {
		return err
	}
	if cfg.HealthAddr != "" {
		ReportHealth(ctx, cfg.HealthAddr, out)
	}
	return nil
}

// ReportHealth probes a running registry and prints whether it is serving.
func ReportHealth(ctx context.Context, addr string, out io.Writer) {
	status := pterm.Green("SERVING")
	if err := platformgrpc.Probe(ctx, addr, server.HealthServiceName, timeouts.HealthDial, nil); err != nil {
		status = pterm.Red(err.Error())
	}
	fmt.Fprintf(out, "registry health (%s): %s\n", addr, status)
}

// Source is the read surface the report draws from.
type Source interface {
	storage.StateLoader
	storage.AssetSearcher
	storage.EventReader
	HeadChainHash(ctx context.Context) (uint64, string, error)
	VerifyJournal(ctx context.Context) (uint64, error)
}

// Report renders the summary, asset table, and recent events.
func Report(ctx context.Context, src Source, cfg Config, out io.Writer) error {
	if src == nil {
		return errors.New("source is required")
	}
	snapshot, err := src.LoadState(ctx)
	if err != nil {
		return err
	}
	headSeq, headHash, err := src.HeadChainHash(ctx)
	if err != nil {
		return err
	}
	integrity := pterm.Green("ok")
	if _, err := src.VerifyJournal(ctx); err != nil {
		integrity = pterm.Red(err.Error())
	}

	fmt.Fprint(out, pterm.DefaultSection.Sprint("Registry"))
	summary, err := pterm.DefaultTable.WithData(pterm.TableData{
		{"Next asset id", strconv.FormatUint(uint64(snapshot.Counter), 10)},
		{"Assets", humanize.Comma(int64(len(snapshot.Owners)))},
		{"Listed", humanize.Comma(int64(len(snapshot.Prices)))},
		{"Journal events", humanize.Comma(int64(headSeq))},
		{"Chain head", shortHash(headHash)},
		{"Journal integrity", integrity},
	}).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, summary)

	page, err := src.SearchAssets(ctx, cfg.Filter, cfg.PageSize, cfg.PageToken)
	if err != nil {
		return err
	}
	fmt.Fprint(out, pterm.DefaultSection.Sprint("Assets"))
	assets := pterm.TableData{{"ID", "Owner", "Genome", "Price"}}
	for _, record := range page.Assets {
		assets = append(assets, []string{
			record.ID.String(),
			string(record.Owner),
			record.Genome.String(),
			formatPrice(record.Price),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(assets).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	if page.NextPageToken != "" {
		fmt.Fprintf(out, "next page: -page-token %s\n", page.NextPageToken)
	}

	if cfg.Events <= 0 || headSeq == 0 {
		return nil
	}
	var afterSeq uint64
	if headSeq > uint64(cfg.Events) {
		afterSeq = headSeq - uint64(cfg.Events)
	}
	events, err := src.ListEvents(ctx, storage.EventQuery{AfterSeq: afterSeq, Limit: cfg.Events})
	if err != nil {
		return err
	}
	fmt.Fprint(out, pterm.DefaultSection.Sprint("Recent events"))
	rows := pterm.TableData{{"Seq", "Type", "Caller", "Asset", "Block", "Recorded"}}
	for _, evt := range events {
		rows = append(rows, []string{
			strconv.FormatUint(evt.Seq, 10),
			string(evt.Type),
			string(evt.Caller),
			evt.AssetID.String(),
			fmt.Sprintf("#%d.%d", evt.BlockNumber, evt.CallIndex),
			humanize.Time(evt.Timestamp),
		})
	}
	table, err = pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	return nil
}

func formatPrice(price *state.Balance) string {
	if price == nil {
		return "-"
	}
	return humanize.Comma(int64(*price))
}

func shortHash(hash string) string {
	if hash == "" {
		return "-"
	}
	if len(hash) > 16 {
		return hash[:16] + "…"
	}
	return hash
}
