// Package server wires the contacts runtime: storage, identity, the HTTP API
// and the gRPC health listener.
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

	platformcmd "github.com/louisbranch/contactkeeper/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/contactkeeper/internal/platform/grpc"
	"github.com/louisbranch/contactkeeper/internal/platform/timeouts"
	contactshttp "github.com/louisbranch/contactkeeper/internal/services/contacts/api/http/contacts"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/identity"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/service"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/postgres"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/sqlite"
)

// Storage backends.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config defines the inputs for the contacts process.
type Config struct {
	HTTPAddr string
	// HealthAddr is the gRPC health listener address. Empty disables it.
	HealthAddr  string
	Storage     string
	DBPath      string
	DatabaseURL string
	Auth        identity.Config
	// Resolver overrides the resolver built from Auth.
	Resolver          identity.Resolver
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the contacts HTTP API and its storage lifecycle.
type Server struct {
	listener        net.Listener
	httpServer      *http.Server
	health          *platformgrpc.HealthServer
	store           storage.ContactStore
	shutdownTimeout time.Duration
}

// New opens storage, builds the identity resolver and binds listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}

	resolver := cfg.Resolver
	if resolver == nil {
		built, err := identity.NewResolver(cfg.Auth, nil)
		if err != nil {
			return nil, fmt.Errorf("build identity resolver: %w", err)
		}
		resolver = built
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}

	var healthServer *platformgrpc.HealthServer
	if addr := strings.TrimSpace(cfg.HealthAddr); addr != "" {
		healthServer, err = platformgrpc.NewHealthServer(addr, platformcmd.ServiceContacts)
		if err != nil {
			_ = listener.Close()
			_ = store.Close()
			return nil, err
		}
	}

	handler := contactshttp.NewHandler(service.New(store), resolver)
	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           handler.Routes(),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		health:          healthServer,
		store:           store,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Run creates and serves a contacts server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init contacts server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve contacts: %w", err)
	}
	return nil
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HealthAddr returns the gRPC health listener address, or "" when disabled.
func (s *Server) HealthAddr() string {
	if s == nil {
		return ""
	}
	return s.health.Addr()
}

// ListenAndServe runs the HTTP and health servers until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("contacts server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	healthCtx, stopHealth := context.WithCancel(context.Background())
	healthDone := make(chan error, 1)
	if s.health != nil {
		go func() {
			healthDone <- s.health.Serve(healthCtx)
		}()
	} else {
		healthDone <- nil
	}
	defer func() {
		stopHealth()
		if err := <-healthDone; err != nil {
			log.Printf("health server: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	log.Printf("contacts server listening on %s", s.Addr())
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()
	s.health.SetServing("", true)
	s.health.SetServing(platformcmd.ServiceContacts, true)

	select {
	case <-ctx.Done():
		s.health.SetServing("", false)
		s.health.SetServing(platformcmd.ServiceContacts, false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.health != nil {
		s.health.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close contacts store: %v", err)
		}
	}
}

func openStore(ctx context.Context, cfg Config) (storage.ContactStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage)) {
	case "", StorageSQLite:
		path := strings.TrimSpace(cfg.DBPath)
		if path == "" {
			path = filepath.Join("data", "contacts.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open contacts sqlite store: %w", err)
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open contacts postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
