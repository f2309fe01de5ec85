// Package server wires storage, auth and transports together and runs the
// notekeeper server until it receives a termination signal.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/rest"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/notekeeper/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	registry *prometheus.Registry
	http     *rest.HTTPServer
	grpc     *gs.GRPCServer
}

// NewApp builds every component from c. The repository manager is opened
// here and released by Run.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	repos, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := assemble(c, logger, repos)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	return app, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.StorageMode == config.StorageMemory {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}
	return repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
}

func assemble(c *config.Config, logger logging.Logger, repos repomanager.RepositoryManager) (*App, error) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	hasher, err := auth.NewPasswordHasher(c.BcryptCost, c.HashingConcurrency)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration, repos.Accounts())
	gate := auth.NewGate(tokens)

	as := services.NewAccountService(repos.Accounts(), hasher, tokens, logger, m)
	ns := services.NewNoteService(repos.Notes(), logger)

	router := rest.NewRouter(rest.NewHandler(as, ns, logger), gate, logger, m, registry)

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		registry: registry,
		http:     rest.NewHTTPServer(c.EndpointAddrHTTP, router, logger),
		grpc:     gs.NewGRPCServer(c.EndpointAddrGRPC, logger, as, gate, m),
	}, nil
}

// Run applies migrations and serves HTTP and gRPC until a signal arrives
// or either server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	defer func() {
		if err := app.repos.Close(); err != nil {
			app.logger.Error(ctx, "closing storage", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageMode)

	if err := app.repos.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(ctx) })
	g.Go(func() error { return app.grpc.Run(ctx) })

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
