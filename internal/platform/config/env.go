// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every variable the module reads.
const EnvPrefix = "MENAGERIE_"

// ParseEnv loads configuration from environment variables. Tag names are
// given without EnvPrefix, e.g. `env:"REGISTRY_DB_PATH"` reads
// MENAGERIE_REGISTRY_DB_PATH.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
