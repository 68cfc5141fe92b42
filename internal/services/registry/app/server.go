// Package server wires the registry runtime: durable store, development
// host, engine, MCP tool surface, and gRPC health lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	platformgrpc "github.com/louisbranch/menagerie/internal/platform/grpc"
	"github.com/louisbranch/menagerie/internal/platform/timeouts"
	"github.com/louisbranch/menagerie/internal/services/registry/api/mcptools"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/engine"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
	"github.com/louisbranch/menagerie/internal/services/registry/host"
	registrysqlite "github.com/louisbranch/menagerie/internal/services/registry/storage/sqlite"
)

const (
	serverName    = "menagerie-registry"
	serverVersion = "0.1.0"

	// HealthServiceName is the gRPC health service reported while the
	// registry is serving.
	HealthServiceName = "menagerie.registry.v1.Registry"

	// TransportStdio serves MCP over stdin/stdout.
	TransportStdio = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP = "http"
)

// Config holds registry runtime settings.
type Config struct {
	DBPath    string
	Transport string
	HTTPAddr  string
	// HealthAddr is the gRPC health listen address; empty disables it.
	HealthAddr         string
	BlockInterval      time.Duration
	ExistentialDeposit state.Balance
	Endowments         map[state.AccountID]state.Balance
	Locale             string
	// Seeds overrides block seeding; nil draws from crypto/rand.
	Seeds host.SeedFunc
}

// Server hosts the registry engine behind MCP plus a gRPC health endpoint.
type Server struct {
	cfg        Config
	store      *registrysqlite.Store
	chain      *host.Chain
	engine     *engine.Engine
	mcpServer  *mcp.Server
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
}

// New opens the store, recovers registry state, and builds the MCP and
// health servers.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "registry.db")
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return nil, fmt.Errorf("transport %q is not supported", cfg.Transport)
	}

	store, err := openRegistryStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	srv := &Server{cfg: cfg, store: store}
	if err := srv.recover(context.Background()); err != nil {
		srv.Close()
		return nil, err
	}

	if cfg.HealthAddr != "" {
		listener, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			srv.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
		}
		srv.listener = listener
		srv.grpcServer, srv.health = platformgrpc.NewHealthServer(HealthServiceName)
	}
	return srv, nil
}

// recover rebuilds in-memory state from the store and wires the engine.
func (s *Server) recover(ctx context.Context) error {
	snapshot, err := s.store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("load registry state: %w", err)
	}
	checked, err := s.store.VerifyJournal(ctx)
	if err != nil {
		return err
	}

	chain, err := host.NewChain(s.cfg.Seeds)
	if err != nil {
		return fmt.Errorf("start development chain: %w", err)
	}
	balances := host.NewBalances(s.cfg.ExistentialDeposit)
	for account, amount := range s.cfg.Endowments {
		balances.Endow(account, amount)
	}

	eng, err := engine.New(engine.Config{
		State:    state.FromSnapshot(snapshot),
		Blocks:   chain,
		Currency: balances,
		Journal:  s.store,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	if err := mcptools.Register(mcpServer, mcptools.Deps{
		Registry: eng,
		Store:    s.store,
		Wallet:   balances,
		Locale:   s.cfg.Locale,
	}); err != nil {
		return fmt.Errorf("register MCP tools: %w", err)
	}

	s.chain = chain
	s.engine = eng
	s.mcpServer = mcpServer
	log.Printf("registry recovered: counter=%d assets=%d listed=%d events=%d", snapshot.Counter, len(snapshot.Owners), len(snapshot.Prices), checked)
	return nil
}

// Engine returns the registry engine.
func (s *Server) Engine() *engine.Engine {
	if s == nil {
		return nil
	}
	return s.engine
}

// HealthAddr returns the gRPC health listener address, or "" when disabled.
func (s *Server) HealthAddr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates a registry server and serves it until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	srv, err := New(cfg)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve runs the configured MCP transport until it stops or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	switch s.cfg.Transport {
	case TransportHTTP:
		return s.serve(ctx, s.serveHTTP)
	default:
		return s.serve(ctx, func(ctx context.Context) error {
			return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
		})
	}
}

// ServeTransport runs MCP over transport, alongside the block clock and the
// health endpoint.
func (s *Server) ServeTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil {
		return errors.New("server is nil")
	}
	return s.serve(ctx, func(ctx context.Context) error {
		return s.mcpServer.Run(ctx, transport)
	})
}

func (s *Server) serve(ctx context.Context, runMCP func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	healthErr := make(chan error, 1)
	if s.grpcServer != nil {
		log.Printf("registry health listening at %v", s.listener.Addr())
		go func() {
			healthErr <- s.grpcServer.Serve(s.listener)
		}()
	}
	if s.cfg.BlockInterval > 0 {
		go s.chain.Run(ctx, s.cfg.BlockInterval)
	}

	mcpErr := make(chan error, 1)
	go func() {
		mcpErr <- runMCP(ctx)
	}()

	var err error
	select {
	case err = <-mcpErr:
	case err = <-healthErr:
		if errors.Is(err, grpc.ErrServerStopped) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("serve gRPC health: %w", err)
		}
		cancel()
		<-mcpErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = "localhost:8095"
	}
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcpServer }, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("registry MCP listening at http://%s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close releases registry server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close registry store: %v", err)
		}
		s.store = nil
	}
}

func openRegistryStore(path string) (*registrysqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := registrysqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry sqlite store: %w", err)
	}
	return store, nil
}
