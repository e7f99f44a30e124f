// Package server wires the marketplace API: storage backends, services and
// the HTTP endpoint, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/dmitrijs2005/bidmarket/internal/server/config"
	"github.com/dmitrijs2005/bidmarket/internal/server/documents"
	"github.com/dmitrijs2005/bidmarket/internal/server/httpapi"
	"github.com/dmitrijs2005/bidmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bidmarket/internal/server/services"
)

var (
	openPostgres = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
		return repomanager.OpenPostgres(ctx, dsn)
	}
	newS3Store = func(ctx context.Context, c documents.S3Config) (documents.Store, error) {
		return documents.NewS3Store(ctx, c)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	repos, err := openRepositories(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	docs, err := openDocuments(ctx, c)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("document store init error: %w", err)
	}

	us := services.NewUserService(repos, c, services.LogSender{Log: logger}, logger)
	ms := services.NewMarketService(repos, docs, logger)
	srv := httpapi.NewServer(c.EndpointAddr, logger, us, ms, c.MaxDocumentSize)

	return &App{config: c, logger: logger, repos: repos, server: srv}, nil
}

func openRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return openPostgres(ctx, c.DatabaseDSN)
}

func openDocuments(ctx context.Context, c *config.Config) (documents.Store, error) {
	if c.S3BaseEndpoint == "" {
		return documents.NewMemoryStore(), nil
	}
	return newS3Store(ctx, documents.S3Config{
		Endpoint:  c.S3BaseEndpoint,
		Region:    c.S3Region,
		Bucket:    c.S3Bucket,
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until the context is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "app stopped")
}

func (app *App) Close() error {
	return app.repos.Close()
}
