package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	registrycmd "github.com/louisbranch/menagerie/internal/cmd/registry"
	entrypoint "github.com/louisbranch/menagerie/internal/platform/cmd"
	"github.com/louisbranch/menagerie/internal/platform/config"
)

// main starts the asset registry with its MCP surface.
func main() {
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceRegistry))
	cfg, err := registrycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := registrycmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve registry: %v", err)
	}
}
