package main

import (
	"context"
	"flag"
	"log"
	"os"

	inspectcmd "github.com/louisbranch/menagerie/internal/cmd/inspect"
	entrypoint "github.com/louisbranch/menagerie/internal/platform/cmd"
	"github.com/louisbranch/menagerie/internal/platform/config"
)

// main prints a read-only report of a registry database.
func main() {
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceInspect))
	cfg, err := inspectcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := inspectcmd.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("inspect: %v", err)
	}
}
