// Package registry parses registry command flags and starts the registry
// runtime.
package registry

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/menagerie/internal/platform/cmd"
	server "github.com/louisbranch/menagerie/internal/services/registry/app"
	"github.com/louisbranch/menagerie/internal/services/registry/domain/state"
	"github.com/louisbranch/menagerie/internal/services/registry/host"
)

// Config holds registry command configuration.
type Config struct {
	DBPath             string        `env:"REGISTRY_DB_PATH"        envDefault:"data/registry.db"`
	Transport          string        `env:"REGISTRY_TRANSPORT"      envDefault:"stdio"`
	HTTPAddr           string        `env:"REGISTRY_HTTP_ADDR"      envDefault:"localhost:8095"`
	HealthPort         int           `env:"REGISTRY_HEALTH_PORT"    envDefault:"8096"`
	BlockInterval      time.Duration `env:"BLOCK_INTERVAL"          envDefault:"6s"`
	ExistentialDeposit uint64        `env:"EXISTENTIAL_DEPOSIT"     envDefault:"1"`
	Endowments         string        `env:"ENDOWMENTS"`
	Locale             string        `env:"LOCALE"                  envDefault:"en-US"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Registry SQLite database path")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "MCP transport: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "MCP HTTP listen address (for http transport)")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "gRPC health port (0 disables)")
	fs.DurationVar(&cfg.BlockInterval, "block-interval", cfg.BlockInterval, "Development chain block interval (0 disables)")
	fs.Uint64Var(&cfg.ExistentialDeposit, "existential-deposit", cfg.ExistentialDeposit, "Minimum balance an account keeps to exist")
	fs.StringVar(&cfg.Endowments, "endowments", cfg.Endowments, "Initial balances as account:amount,...")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for error messages")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig converts cfg into the runtime configuration.
func (cfg Config) ServerConfig() (server.Config, error) {
	endowments, err := host.ParseEndowments(cfg.Endowments)
	if err != nil {
		return server.Config{}, fmt.Errorf("parse endowments: %w", err)
	}
	if cfg.HealthPort < 0 {
		return server.Config{}, fmt.Errorf("health port %d is invalid", cfg.HealthPort)
	}
	healthAddr := ""
	if cfg.HealthPort > 0 {
		healthAddr = fmt.Sprintf(":%d", cfg.HealthPort)
	}
	return server.Config{
		DBPath:             cfg.DBPath,
		Transport:          cfg.Transport,
		HTTPAddr:           cfg.HTTPAddr,
		HealthAddr:         healthAddr,
		BlockInterval:      cfg.BlockInterval,
		ExistentialDeposit: state.Balance(cfg.ExistentialDeposit),
		Endowments:         endowments,
		Locale:             cfg.Locale,
	}, nil
}

// Run starts the registry service.
func Run(ctx context.Context, cfg Config) error {
	serverCfg, err := cfg.ServerConfig()
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRegistry, func(ctx context.Context) error {
		return server.Run(ctx, serverCfg)
	})
}
