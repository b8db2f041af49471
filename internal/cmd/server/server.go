// Package server parses wagering service flags and launches the service.
package server

import (
	"context"
	"flag"

	entrypoint "github.com/frontline-gg/wagervault/internal/platform/cmd"
	app "github.com/frontline-gg/wagervault/internal/wager/app"
)

// Config holds server command configuration.
type Config struct {
	Port int `env:"WAGERVAULT_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The wagering HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the wagering HTTP API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(context.Context) error {
		return app.Run(ctx, cfg.Port)
	})
}
