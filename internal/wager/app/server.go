// Package app wires the wagering runtime and HTTP lifecycle.
package app

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

	"github.com/frontline-gg/wagervault/internal/identity"
	ledgersqlite "github.com/frontline-gg/wagervault/internal/ledger/sqlite"
	"github.com/frontline-gg/wagervault/internal/platform/config"
	"github.com/frontline-gg/wagervault/internal/platform/timeouts"
	wagerhttp "github.com/frontline-gg/wagervault/internal/wager/api/http"
	"github.com/frontline-gg/wagervault/internal/wager/event"
	"github.com/frontline-gg/wagervault/internal/wager/rules"
	"github.com/frontline-gg/wagervault/internal/wager/service"
	wagersqlite "github.com/frontline-gg/wagervault/internal/wager/storage/sqlite"
)

type serverEnv struct {
	DBPath     string `env:"WAGERVAULT_DB_PATH"`
	LedgerPath string `env:"WAGERVAULT_LEDGER_DB_PATH"`
	RulesPath  string `env:"WAGERVAULT_RULES_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "wagervault.db")
	}
	if strings.TrimSpace(cfg.LedgerPath) == "" {
		cfg.LedgerPath = filepath.Join("data", "ledger.db")
	}
	return cfg
}

// Server hosts the wagering HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *wagersqlite.Store
	vault      *ledgersqlite.Store
}

// New creates a configured wagering server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured wagering server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srvEnv := loadServerEnv()

	gameRules := rules.Default()
	if strings.TrimSpace(srvEnv.RulesPath) != "" {
		gameRules, err = rules.Load(srvEnv.RulesPath)
		if err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}

	store, err := openSessionStore(srvEnv.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	vault, err := openLedgerStore(srvEnv.LedgerPath)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	verifierCfg, err := identity.LoadConfigFromEnv(nil)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		_ = vault.Close()
		return nil, fmt.Errorf("load identity config: %w", err)
	}
	verifier, err := identity.NewTokenVerifier(verifierCfg)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		_ = vault.Close()
		return nil, fmt.Errorf("build identity verifier: %w", err)
	}

	bus := event.NewBus()
	svc, err := service.New(store, vault, gameRules, bus, nil)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		_ = vault.Close()
		return nil, fmt.Errorf("build service: %w", err)
	}
	handler, err := wagerhttp.NewHandler(svc, verifier, bus)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		_ = vault.Close()
		return nil, fmt.Errorf("build handler: %w", err)
	}

	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		store: store,
		vault: vault,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a wagering server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("wagervault server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases wagering server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = s.httpServer.Shutdown(shutdownCtx)
		cancel()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close session store: %v", err)
		}
	}
	if s.vault != nil {
		if err := s.vault.Close(); err != nil {
			log.Printf("close ledger store: %v", err)
		}
	}
}

func openSessionStore(path string) (*wagersqlite.Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	store, err := wagersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wagervault sqlite store: %w", err)
	}
	return store, nil
}

func openLedgerStore(path string) (*ledgersqlite.Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	store, err := ledgersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger sqlite store: %w", err)
	}
	return store, nil
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	return nil
}
