// Package contactstoken mints development identity tokens for the contacts API.
package contactstoken

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/contactkeeper/internal/platform/cmd"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/identity"
)

// Config holds token minting configuration.
type Config struct {
	JWTSecret string        `env:"CONTACTKEEPER_AUTH_JWT_SECRET"`
	JWTIssuer string        `env:"CONTACTKEEPER_AUTH_JWT_ISSUER"`
	Owner     string        `env:"CONTACTKEEPER_TOKEN_OWNER"`
	TTL       time.Duration `env:"CONTACTKEEPER_TOKEN_TTL" envDefault:"24h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Owner, "owner", cfg.Owner, "owner id carried by the token")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "token lifetime (0 = no expiry)")
	fs.StringVar(&cfg.JWTIssuer, "issuer", cfg.JWTIssuer, "token issuer")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run mints a token and writes it to out as an env assignment.
func Run(cfg Config, out io.Writer, now func() time.Time) error {
	if out == nil {
		return errors.New("output is required")
	}
	if strings.TrimSpace(cfg.Owner) == "" {
		return errors.New("owner is required")
	}
	issuer, err := identity.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TTL, now)
	if err != nil {
		return err
	}
	token, err := issuer.Mint(cfg.Owner)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	_, err = fmt.Fprintf(out, "CONTACTKEEPER_TOKEN=%s\n", token)
	return err
}
