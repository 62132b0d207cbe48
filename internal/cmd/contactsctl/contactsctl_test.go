package contactsctl

import (
	"bytes"
	"context"
	"flag"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
	contactshttp "github.com/louisbranch/contactkeeper/internal/services/contacts/api/http/contacts"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/identity"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/service"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/sqlite"
)

func TestParseConfig(t *testing.T) {
	t.Setenv("CONTACTKEEPER_TOKEN", "env-token")

	fs := flag.NewFlagSet("contactsctl", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-api-url", "http://api", "list", "-q", "ada"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.APIURL != "http://api" || cfg.Token != "env-token" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Command != CommandList {
		t.Fatalf("expected list command, got %q", cfg.Command)
	}
	if strings.Join(cfg.Args, " ") != "-q ada" {
		t.Fatalf("expected command args, got %v", cfg.Args)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("contactsctl", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-token", "t", "delete"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.APIURL != "http://localhost:5000" {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
}

func TestParseConfigRejectsBadInput(t *testing.T) {
	cases := map[string][]string{
		"missing command": {"-token", "t"},
		"unknown command": {"-token", "t", "export"},
		"missing token":   {"list"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			fs := flag.NewFlagSet("contactsctl", flag.ContinueOnError)
			if _, err := ParseConfig(fs, args); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func startAPI(t *testing.T) (string, func(owner string) string) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "contacts.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	resolver, err := identity.NewJWTResolver("ctl-secret", "", nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	srv := httptest.NewServer(contactshttp.NewHandler(service.New(store), resolver).Routes())
	t.Cleanup(srv.Close)

	issuer, err := identity.NewIssuer("ctl-secret", "", time.Hour, nil)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	mint := func(owner string) string {
		token, err := issuer.Mint(owner)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		return token
	}
	return srv.URL, mint
}

func execute(t *testing.T, cfg Config, command string, args ...string) (string, error) {
	t.Helper()
	cfg.Command = command
	cfg.Args = args
	var out bytes.Buffer
	err := Execute(context.Background(), cfg, &out)
	return out.String(), err
}

func idFromOutput(t *testing.T, out string) string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected a contact row, got %q", out)
	}
	return strings.Fields(lines[1])[0]
}

func TestExecuteCommands(t *testing.T) {
	url, mint := startAPI(t)
	cfg := Config{APIURL: url, Token: mint("user-a")}

	out, err := execute(t, cfg, CommandAdd, "-name", "Ada", "-email", "ada@x.io", "-type", "professional")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	adaID := idFromOutput(t, out)
	if !strings.Contains(out, "professional") {
		t.Fatalf("expected type in output, got %q", out)
	}
	if _, err := execute(t, cfg, CommandAdd, "-name", "Grace", "-phone", "777"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err = execute(t, cfg, CommandUpdate, "-id", adaID, "-phone", "555")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(out, "555") || !strings.Contains(out, "ada@x.io") {
		t.Fatalf("expected updated phone with email kept, got %q", out)
	}

	out, err = execute(t, cfg, CommandList, "-q", "ADA")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Ada") || strings.Contains(out, "Grace") {
		t.Fatalf("expected only Ada, got %q", out)
	}

	out, err = execute(t, cfg, CommandList, "-filter", `type = "personal"`)
	if err != nil {
		t.Fatalf("list filter: %v", err)
	}
	if !strings.Contains(out, "Grace") || strings.Contains(out, "Ada") {
		t.Fatalf("expected only Grace, got %q", out)
	}

	if _, err := execute(t, cfg, CommandDelete, "-id", adaID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, err = execute(t, cfg, CommandList)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out, adaID) {
		t.Fatalf("expected %s removed, got %q", adaID, out)
	}
}

func TestExecuteIsScopedToOwner(t *testing.T) {
	url, mint := startAPI(t)
	owner := Config{APIURL: url, Token: mint("user-a")}
	other := Config{APIURL: url, Token: mint("user-b")}

	out, err := execute(t, owner, CommandAdd, "-name", "Ada")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id := idFromOutput(t, out)

	out, err = execute(t, other, CommandList)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out, id) {
		t.Fatalf("expected other owner to see nothing, got %q", out)
	}

	_, err = execute(t, other, CommandDelete, "-id", id)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestExecuteValidationErrors(t *testing.T) {
	url, mint := startAPI(t)
	cfg := Config{APIURL: url, Token: mint("user-a")}

	if _, err := execute(t, cfg, CommandAdd, "-name", "  "); !apperrors.HasCode(err, apperrors.CodeContactNameEmpty) {
		t.Fatalf("expected name empty, got %v", err)
	}
	if _, err := execute(t, cfg, CommandAdd, "-name", "Ada", "-type", "family"); err == nil {
		t.Fatal("expected invalid type error")
	}
	if _, err := execute(t, cfg, CommandUpdate); err == nil {
		t.Fatal("expected missing id error")
	}
	if _, err := execute(t, cfg, CommandUpdate, "-id", "missing", "-name", "x"); err == nil {
		t.Fatal("expected unknown contact error")
	}
}

func TestExecuteRejectsBadToken(t *testing.T) {
	url, _ := startAPI(t)
	cfg := Config{APIURL: url, Token: "not-a-token"}
	_, err := execute(t, cfg, CommandList)
	if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
