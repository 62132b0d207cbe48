// Package contactsctl implements a command-line client for the contacts API.
package contactsctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/contactkeeper/internal/client/contactcache"
	"github.com/louisbranch/contactkeeper/internal/client/contactsclient"
	"github.com/louisbranch/contactkeeper/internal/client/session"
	entrypoint "github.com/louisbranch/contactkeeper/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/contactkeeper/internal/platform/grpc"
	"github.com/louisbranch/contactkeeper/internal/platform/timeouts"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
)

// Commands accepted after the global flags.
const (
	CommandList   = "list"
	CommandAdd    = "add"
	CommandUpdate = "update"
	CommandDelete = "delete"
)

// Config holds CLI configuration.
type Config struct {
	APIURL     string `env:"CONTACTKEEPER_API_URL"     envDefault:"http://localhost:5000"`
	Token      string `env:"CONTACTKEEPER_TOKEN"`
	HealthAddr string `env:"CONTACTKEEPER_HEALTH_ADDR"`
	Locale     string `env:"CONTACTKEEPER_LOCALE"`

	Command string
	Args    []string
}

// ParseConfig parses environment and global flags. The first positional
// argument selects the command; the rest are the command's own flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "contacts API base URL")
	fs.StringVar(&cfg.Token, "token", cfg.Token, "identity token")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health address to wait on before calling the API")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "preferred locale for error messages")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("command is required (list, add, update, delete)")
	}
	cfg.Command = rest[0]
	cfg.Args = rest[1:]
	switch cfg.Command {
	case CommandList, CommandAdd, CommandUpdate, CommandDelete:
	default:
		return Config{}, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return Config{}, errors.New("token is required")
	}
	return cfg, nil
}

// Run executes the configured command with telemetry and writes results to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceContactsCtl, func(ctx context.Context) error {
		return Execute(ctx, cfg, out)
	})
}

// Execute runs one command against the contacts API.
func Execute(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if addr := strings.TrimSpace(cfg.HealthAddr); addr != "" {
		if err := platformgrpc.WaitReady(ctx, nil, addr, entrypoint.ServiceContacts, timeouts.HealthDial, log.Printf); err != nil {
			return fmt.Errorf("wait for contacts health: %w", err)
		}
	}

	var opts []contactsclient.Option
	if cfg.Locale != "" {
		opts = append(opts, contactsclient.WithLocale(cfg.Locale))
	}
	client, err := contactsclient.New(cfg.APIURL, cfg.Token, opts...)
	if err != nil {
		return err
	}
	s, err := session.New(client, contactcache.New())
	if err != nil {
		return err
	}

	switch cfg.Command {
	case CommandList:
		return runList(ctx, s, client, cfg.Args, out)
	case CommandAdd:
		return runAdd(ctx, s, cfg.Args, out)
	case CommandUpdate:
		return runUpdate(ctx, s, cfg.Args, out)
	case CommandDelete:
		return runDelete(ctx, s, cfg.Args, out)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func runList(ctx context.Context, s *session.Session, client *contactsclient.Client, args []string, out io.Writer) error {
	fs := newFlagSet(CommandList)
	query := fs.String("q", "", "case-insensitive text filter over name, email and phone")
	serverFilter := fs.String("filter", "", `server-side filter, e.g. type = "professional"`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *serverFilter != "" {
		contacts, err := client.List(ctx, *serverFilter)
		if err != nil {
			return err
		}
		cache := s.Cache()
		ticket, err := cache.BeginLoad()
		if err != nil {
			return err
		}
		if err := cache.FinishLoad(ticket, contacts, nil); err != nil {
			return err
		}
	} else if err := s.Load(ctx); err != nil {
		return err
	}
	s.SetFilter(*query)
	return writeContacts(out, s.Cache().Snapshot().Visible())
}

func runAdd(ctx context.Context, s *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet(CommandAdd)
	draft := session.EmptyDraft()
	bindFields(fs, &draft)
	if err := fs.Parse(args); err != nil {
		return err
	}
	s.SetDraft(draft)
	created, err := s.Submit(ctx)
	if err != nil {
		return err
	}
	return writeContacts(out, []contact.Contact{created})
}

func runUpdate(ctx context.Context, s *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet(CommandUpdate)
	id := fs.String("id", "", "contact id")
	var input contact.Fields
	bindFields(fs, &input)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return errors.New("update: -id is required")
	}

	if err := s.Load(ctx); err != nil {
		return err
	}
	if err := s.Edit(*id); err != nil {
		if errors.Is(err, contactcache.ErrUnknownContact) {
			return fmt.Errorf("update: contact %s not found", *id)
		}
		return err
	}
	draft := s.Draft()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			draft.Name = input.Name
		case "email":
			draft.Email = input.Email
		case "phone":
			draft.Phone = input.Phone
		case "type":
			draft.Type = input.Type
		}
	})
	s.SetDraft(draft)

	updated, err := s.Submit(ctx)
	if err != nil {
		return err
	}
	return writeContacts(out, []contact.Contact{updated})
}

func runDelete(ctx context.Context, s *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet(CommandDelete)
	id := fs.String("id", "", "contact id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return errors.New("delete: -id is required")
	}
	if err := s.Delete(ctx, *id); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "deleted %s\n", *id)
	return err
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func bindFields(fs *flag.FlagSet, fields *contact.Fields) {
	fs.StringVar(&fields.Name, "name", fields.Name, "contact name")
	fs.StringVar(&fields.Email, "email", fields.Email, "contact email")
	fs.StringVar(&fields.Phone, "phone", fields.Phone, "contact phone")
	fs.Func("type", "contact type (personal, professional)", func(raw string) error {
		parsed, err := contact.ParseType(raw)
		if err != nil {
			return err
		}
		fields.Type = parsed
		return nil
	})
}

func writeContacts(out io.Writer, contacts []contact.Contact) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tTYPE")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, c.Type)
	}
	return tw.Flush()
}
