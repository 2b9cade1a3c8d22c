// Package server wires the development backend: Postgres repositories, the
// storage signer, the REST API, the gRPC health endpoint and background
// maintenance.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/marsha-uploader/internal/buildinfo"
	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/dmitrijs2005/marsha-uploader/internal/reporting"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/config"
	gs "github.com/dmitrijs2005/marsha-uploader/internal/server/grpc"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/httpapi"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/services"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/storage"
)

const (
	tokenPurgeInterval  = time.Hour
	healthProbeInterval = 10 * time.Second
)

// package-level seams for tests
var (
	openDB         = repomanager.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
	newSigner      = storage.New
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	reporter      reporting.Reporter
	db            *sql.DB
	userService   *services.UserService
	uploadService *services.UploadService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{Backend: c.LogBackend, Level: c.LogLevel, JSON: true, Output: os.Stdout})
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	signer, err := newSigner(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("signer init error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	if c.DevUsername != "" {
		if _, err := us.EnsureUser(ctx, c.DevUsername, c.DevPassword); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed dev user: %w", err)
		}
		logger.Info(ctx, "dev user ready", "username", c.DevUsername)
	}

	reporter := reporting.New(reporting.RollbarConfig{
		Token:       c.RollbarToken,
		Environment: c.Environment,
		CodeVersion: buildinfo.Version,
	}, logger)

	return &App{
		config:        c,
		logger:        logger,
		reporter:      reporter,
		db:            db,
		userService:   us,
		uploadService: services.NewUploadService(db, rm, signer, c.MaxUploadSize, logger.With("module", "uploads")),
	}, nil
}

// every runs fn each interval until ctx is done. Failures are reported and
// do not stop the loop.
func (app *App) every(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				app.reporter.Report(ctx, err, map[string]any{"job": name})
			}
		}
	}
}

func (app *App) purgeTokens(ctx context.Context) error {
	n, err := app.userService.PurgeExpiredTokens(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		app.logger.Info(ctx, "expired refresh tokens purged", "count", n)
	}
	return nil
}

func (app *App) finishProcessing(ctx context.Context) error {
	_, err := app.uploadService.FinishProcessing(ctx, app.config.ProcessingDelay)
	return err
}

// Run serves until ctx is cancelled or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	api := httpapi.NewServer(app.config.HTTPAddr, app.userService, app.uploadService, app.logger, app.reporter)
	g.Go(func() error { return api.Run(ctx) })

	health := gs.NewHealthServer(app.config.GRPCAddr, app.logger, app.db.PingContext, healthProbeInterval)
	g.Go(func() error { return health.Run(ctx) })

	g.Go(func() error {
		app.every(ctx, tokenPurgeInterval, "purge_tokens", app.purgeTokens)
		return nil
	})

	processingTick := app.config.ProcessingDelay / 2
	if processingTick < time.Second {
		processingTick = time.Second
	}
	g.Go(func() error {
		app.every(ctx, processingTick, "finish_processing", app.finishProcessing)
		return nil
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) Close() error {
	if c, ok := app.reporter.(interface{ Close() }); ok {
		c.Close()
	}
	return app.db.Close()
}
