package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/sleuth/cmd/sleuth/shared"
	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/randutil"
	"github.com/lox/sleuth/internal/roomcode"
	"github.com/lox/sleuth/internal/server"
	"github.com/lox/sleuth/internal/session"
	"github.com/lox/sleuth/internal/store"
)

// ServerCmd runs the HTTP and websocket server. Flags override the config
// file and SLEUTH_* environment variables.
type ServerCmd struct {
	Config    string `kong:"short='c',default='sleuth.hcl',help='Path to HCL configuration file'"`
	Addr      string `kong:"help='Server address (overrides config)'"`
	LogLevel  string `kong:"help='Log level: debug, info, warn, error (overrides config)'"`
	LogFormat string `kong:"help='Log format: text or json (overrides config)'"`
	Store     string `kong:"help='Room store: memory or file (overrides config)'"`
	StoreDir  string `kong:"help='Directory for the file store (overrides config)'"`
	Seed      *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger, err := shared.SetupLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		return err
	}

	seed := cfg.Server.Seed
	if seed != 0 {
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
		logger.Info("Using random seed", "seed", seed)
	}
	rng := randutil.NewLocked(randutil.New(seed))

	dealer, err := deck.NewDealer(cfg.CatalogOrDefault(), rng)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}

	sessions := session.NewManager(st, dealer, roomcode.NewGenerator(rng), logger)
	s := server.NewServer(sessions, logger, server.WithAllowedOrigins(cfg.Server.AllowedOrigins...))

	logger.Info("Starting sleuth server",
		"address", cfg.Server.Address,
		"store", cfg.Store.Backend,
		"cards", dealer.Catalog().Size())

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (c *ServerCmd) loadConfig() (*server.FileConfig, error) {
	cfg, err := server.LoadFileConfig(c.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Server.LogFormat = c.LogFormat
	}
	if c.Store != "" {
		cfg.Store.Backend = c.Store
	}
	if c.StoreDir != "" {
		cfg.Store.Dir = c.StoreDir
	}
	if c.Seed != nil {
		cfg.Server.Seed = *c.Seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(settings *server.StoreSettings, logger *log.Logger) (store.Store, error) {
	switch settings.Backend {
	case server.StoreFile:
		logger.Info("Using file store", "dir", settings.Dir)
		fs, err := store.NewFileStore(settings.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return store.NewMemoryStore(), nil
	}
}
