package inspect

import (
	"bytes"
	"context"
	"flag"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"

	platformgrpc "github.com/louisbranch/menagerie/internal/platform/grpc"
	server "github.com/louisbranch/menagerie/internal/services/registry/app"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/event"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
	registrysqlite "github.com/louisbranch/menagerie/internal/services/registry/storage/sqlite"
)

func seedStore(t *testing.T, path string) {
	t.Helper()
	store, err := registrysqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	for i, owner := range []state.AccountID{"alice", "bob"} {
		id := state.AssetID(i)
		next := id + 1
		_, err := store.Commit(context.Background(), state.ChangeSet{
			Counter: &next,
			Genomes: map[state.AssetID]state.Genome{id: {0xab}},
			Owners:  map[state.AssetID]state.AccountID{id: owner},
		}, []event.Event{{
			Type:        event.TypeAssetCreated,
			Caller:      owner,
			AssetID:     id,
			BlockNumber: 3,
			CallIndex:   uint32(i),
			Timestamp:   time.Now(),
			PayloadJSON: []byte(`{}`),
		}})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	price := state.Balance(12_500)
	if _, err := store.Commit(context.Background(), state.ChangeSet{
		Prices: map[state.AssetID]*state.Balance{1: &price},
	}, []event.Event{{Type: event.TypeListed, Caller: "bob", AssetID: 1, Timestamp: time.Now(), PayloadJSON: []byte(`{}`)}}); err != nil {
		t.Fatalf("commit listing: %v", err)
	}
}

func TestRunPrintsReport(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	path := filepath.Join(t.TempDir(), "registry.db")
	seedStore(t, path)

	var out bytes.Buffer
	err := Run(context.Background(), Config{DBPath: path, PageSize: 10, Events: 2}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.String()
	for _, want := range []string{"Registry", "Assets", "Recent events", "alice", "12,500", "asset.listed", "ok"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Count(report, "asset.created") != 1 {
		t.Fatalf("expected only the last two events in the report:\n%s", report)
	}
}

func TestRunFiltersAndPages(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	path := filepath.Join(t.TempDir(), "registry.db")
	seedStore(t, path)

	var out bytes.Buffer
	err := Run(context.Background(), Config{DBPath: path, Filter: `owner = "alice"`, PageSize: 1}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := out.String()
	if strings.Contains(report, "12,500") {
		t.Fatalf("filter did not exclude bob's listing:\n%s", report)
	}
}

func TestRunMissingDatabase(t *testing.T) {
	err := Run(context.Background(), Config{DBPath: filepath.Join(t.TempDir(), "missing.db")}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("MENAGERIE_REGISTRY_DB_PATH", "/tmp/other.db")

	cfg, err := ParseConfig(flag.NewFlagSet("inspect", flag.ContinueOnError), []string{"-events", "3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Fatalf("db path = %q, want env value", cfg.DBPath)
	}
	if cfg.PageSize != 25 || cfg.Events != 3 {
		t.Fatalf("cfg = %+v, want page size 25 and 3 events", cfg)
	}
}

func TestReportHealth(t *testing.T) {
	pterm.DisableStyling()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	grpcServer, _ := platformgrpc.NewHealthServer(server.HealthServiceName)
	go func() { _ = grpcServer.Serve(listener) }()
	defer grpcServer.Stop()

	var out bytes.Buffer
	ReportHealth(context.Background(), listener.Addr().String(), &out)
	if !strings.Contains(out.String(), "SERVING") {
		t.Fatalf("output = %q, want SERVING", out.String())
	}
}

func TestParseConfigHealthFlag(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("inspect", flag.ContinueOnError), []string{"-health", "localhost:8096"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HealthAddr != "localhost:8096" {
		t.Fatalf("health addr = %q, want localhost:8096", cfg.HealthAddr)
	}
}
