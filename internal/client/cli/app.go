package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/api"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/auth"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/config"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/localdb"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/repositories/resources"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/store"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/uploads"
	"github.com/dmitrijs2005/marsha-uploader/internal/filex"
	"github.com/dmitrijs2005/marsha-uploader/internal/flagx"
	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/dmitrijs2005/marsha-uploader/internal/reporting"
)

// globalFlags are owned by the config package and stripped before a
// subcommand parses its own flags.
var globalFlags = []string{"-a", "-g", "-l", "-i", "-t", "-m", "-d", "-c", "-config", "--config"}

var ErrUsage = errors.New("usage error")

type App struct {
	config   *config.Config
	repos    *localdb.Repositories
	tokens   *auth.TokenStore
	api      *api.Client
	registry *store.Registry
	manager  *uploads.Manager
	uploader *uploads.Uploader
	reporter reporting.Reporter
	logger   logging.Logger
	health   HealthChecker

	in  *bufio.Reader
	out io.Writer
}

// NewApp opens the local cache in cfg.DataDir, restores the session and the
// cached resources, and wires the upload components.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{Backend: cfg.LogBackend, Level: cfg.LogLevel})
	if err != nil {
		return nil, err
	}

	dataDir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	repos, err := localdb.Open(ctx, filepath.Join(dataDir, "client.db"))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	tokens := auth.NewTokenStore()
	if _, pair, err := metadata.LoadSession(ctx, repos.Metadata); err != nil {
		logger.Warn(ctx, "could not load session", "error", err)
	} else {
		tokens.Set(pair)
	}
	tokens.Subscribe(func(pair models.TokenPair) {
		if err := metadata.SaveTokens(context.Background(), repos.Metadata, pair); err != nil {
			logger.Error(context.Background(), "could not persist tokens", "error", err)
		}
	})

	registry := store.NewRegistry()
	if snapshot, err := repos.Resources.LoadAll(ctx); err != nil {
		logger.Warn(ctx, "could not load cached resources", "error", err)
	} else if err := registry.Restore(snapshot); err != nil {
		logger.Warn(ctx, "could not restore cached resources", "error", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	refresher := auth.NewRefresher(cfg.APIBaseURL, httpClient, tokens, auth.NewBlacklist(), logger)
	client := api.New(api.Options{
		BaseURL:       cfg.APIBaseURL,
		Locale:        cfg.Locale,
		HTTPClient:    httpClient,
		RefreshLeeway: cfg.RefreshLeeway,
	}, tokens, refresher, logger)

	manager := uploads.NewManager()
	reporter := reporting.New(reporting.RollbarConfig{
		Token:       cfg.RollbarToken,
		Environment: cfg.Environment,
	}, logger)

	return &App{
		config:   cfg,
		repos:    repos,
		tokens:   tokens,
		api:      client,
		registry: registry,
		manager:  manager,
		uploader: uploads.NewUploader(manager, registry, client, uploads.HTTPTransferer{Client: httpClient}, cfg.MaxFileSize, logger),
		reporter: reporter,
		logger:   logger,
		health:   &grpcHealth{addr: cfg.GRPCAddr},
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Close writes the resource stores back to the cache and closes it.
func (a *App) Close(ctx context.Context) error {
	err := resources.SaveSnapshot(ctx, a.repos.DB, a.registry.Snapshot())
	if r, ok := a.reporter.(*reporting.RollbarReporter); ok {
		r.Close()
	}
	return errors.Join(err, a.repos.Close())
}

// Run executes the subcommand found in args (os.Args[1:]).
func (a *App) Run(ctx context.Context, args []string) error {
	args = flagx.DropArgs(args, globalFlags)
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "upload":
		return a.upload(ctx, rest)
	case "show":
		return a.show(ctx, rest)
	case "ping":
		return a.ping(ctx)
	case "logout":
		return a.logout(ctx)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
		a.usage()
		return ErrUsage
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Usage: client [-a url] [-c config.json] <command>")
	fmt.Fprintln(a.out, "Commands: login, upload, show, ping, logout")
	fmt.Fprintf(a.out, "Kinds: %s\n", strings.Join(kindNames(), ", "))
}

func kindNames() []string {
	names := make([]string, 0, len(models.ObjectTypes))
	for _, k := range models.ObjectTypes {
		names = append(names, string(k))
	}
	return names
}
