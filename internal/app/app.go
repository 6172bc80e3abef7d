// Package app provides the application initialization and lifecycle management
package app

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/confsync/internal/config"
	"github.com/tildaslashalef/confsync/internal/confluence"
	"github.com/tildaslashalef/confsync/internal/github"
	"github.com/tildaslashalef/confsync/internal/loggy"
	syncsvc "github.com/tildaslashalef/confsync/internal/sync"
)

// App represents the application instance with its dependencies
type App struct {
	Config     *config.Config
	Logger     *loggy.Logger
	Confluence *confluence.Client
	GitHub     *github.Client
	Sync       *syncsvc.Service

	syncFile    *config.SyncFile
	syncFileErr error
}

// New initializes a new application instance from the CLI context. The sync
// file and environment are loaded and all clients constructed; credential
// presence is checked separately so that offline commands stay usable.
func New(c *cli.Context) (*App, error) {
	cfg, err := config.LoadFromEnv(c.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if format := c.String("log-format"); format != "" {
		cfg.Logging.Format = format
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, err
	}

	// A broken or missing sync file only matters to the commands that use
	// it, so the error is held until one of them asks.
	syncFile, syncFileErr := config.LoadSyncFile(c.String("config"))
	if syncFileErr != nil {
		syncFileErr = fmt.Errorf("failed to load sync file %s: %w", c.String("config"), syncFileErr)
	}

	// The sync file may carry the Confluence URL and username for
	// environments where only secrets live in the environment.
	if syncFile != nil {
		if cfg.Confluence.BaseURL == "" {
			cfg.Confluence.BaseURL = syncFile.Confluence.URL
		}
		if cfg.Confluence.Username == "" {
			cfg.Confluence.Username = syncFile.Confluence.Username
		}
	}

	logger.Debug("application initializing",
		"config", c.String("config"),
		"log_level", cfg.Logging.Level,
	)

	confluenceClient := confluence.NewClient(cfg.Confluence, logger)
	githubClient := github.NewClient(cfg.GitHub, logger)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Confluence:  confluenceClient,
		GitHub:      githubClient,
		Sync:        syncsvc.NewService(confluenceClient, githubClient, logger),
		syncFile:    syncFile,
		syncFileErr: syncFileErr,
	}, nil
}

// RequireSyncFile returns the loaded sync file, or the error encountered
// while loading it.
func (a *App) RequireSyncFile() (*config.SyncFile, error) {
	if a.syncFileErr != nil {
		return nil, a.syncFileErr
	}
	return a.syncFile, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) (*loggy.Logger, error) {
	logger, err := loggy.New(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// RequireCredentials verifies that every credential needed for remote calls
// is present, logging each missing one by the environment variable that
// supplies it. Commands that talk to GitHub or Confluence call this before
// making any network request.
func (a *App) RequireCredentials() error {
	missing := a.Config.MissingCredentials()
	if len(missing) == 0 {
		return nil
	}

	for _, name := range missing {
		a.Logger.Error("missing required credential", "name", name)
	}
	return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
