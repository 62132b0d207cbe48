// Package contacts parses contacts server configuration and starts the service.
package contacts

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/contactkeeper/internal/platform/cmd"
	server "github.com/louisbranch/contactkeeper/internal/services/contacts/app"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/identity"
)

// Config holds contacts command configuration.
type Config struct {
	HTTPAddr    string          `env:"CONTACTKEEPER_CONTACTS_HTTP_ADDR"    envDefault:":5000"`
	HealthPort  int             `env:"CONTACTKEEPER_CONTACTS_HEALTH_PORT"  envDefault:"8091"`
	Storage     string          `env:"CONTACTKEEPER_CONTACTS_STORAGE"      envDefault:"sqlite"`
	DBPath      string          `env:"CONTACTKEEPER_CONTACTS_DB_PATH"      envDefault:"data/contacts.db"`
	DatabaseURL string          `env:"CONTACTKEEPER_CONTACTS_DATABASE_URL"`
	Auth        identity.Config `envPrefix:"CONTACTKEEPER_AUTH_"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "contacts HTTP listen address")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "gRPC health port (0 disables)")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "storage backend (sqlite, postgres)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "postgres connection URL")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.HealthPort < 0 {
		return Config{}, fmt.Errorf("health port must not be negative: %d", cfg.HealthPort)
	}
	return cfg, nil
}

// ServerConfig maps command configuration onto the server runtime.
func (c Config) ServerConfig() server.Config {
	healthAddr := ""
	if c.HealthPort > 0 {
		healthAddr = fmt.Sprintf(":%d", c.HealthPort)
	}
	return server.Config{
		HTTPAddr:    c.HTTPAddr,
		HealthAddr:  healthAddr,
		Storage:     c.Storage,
		DBPath:      c.DBPath,
		DatabaseURL: c.DatabaseURL,
		Auth:        c.Auth,
	}
}

// Run starts the contacts server with telemetry until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceContacts, func(ctx context.Context) error {
		if err := server.Run(ctx, cfg.ServerConfig()); err != nil {
			return fmt.Errorf("serve contacts: %w", err)
		}
		return nil
	})
}
