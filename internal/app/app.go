// Package app builds the running application from its parts: config,
// credentials, the action log, the provider client, and the
// orchestrator on top. Commands call Build once and share the result.
package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bhmc/ggbridge/internal/config"
	"bhmc/ggbridge/internal/executor"
	"bhmc/ggbridge/internal/intlog"
	"bhmc/ggbridge/internal/orchestrator"
	"bhmc/ggbridge/internal/progress"
	"bhmc/ggbridge/internal/provider"
	"bhmc/ggbridge/internal/services/auth"
)

// logLevelEnv overrides the default info level, e.g. "debug" while
// chasing a provider issue.
const logLevelEnv = "GGBRIDGE_LOG_LEVEL"

// App is the assembled application.
type App struct {
	Cfg     *config.Config
	Repo    *intlog.SQLiteRepository
	Orch    *orchestrator.Orchestrator
	Tracker *progress.Tracker
	Logger  zerolog.Logger
}

// NewLogger builds the process logger writing human-readable lines to
// stderr.
func NewLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(os.Getenv(logLevelEnv)); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Build assembles the application. It fails when no provider API key
// has been stored; run "ggbridge auth login" first.
func Build() (*App, error) {
	logger := NewLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("app: loading config: %w", err)
	}

	key, err := auth.DefaultStore().GetKey(auth.ProviderGenius)
	if err != nil {
		return nil, fmt.Errorf("app: no provider API key stored (run \"ggbridge auth login\"): %w", err)
	}

	repo, err := intlog.Open()
	if err != nil {
		return nil, fmt.Errorf("app: opening action log: %w", err)
	}

	client := provider.NewClient(cfg.BaseURL(), key,
		provider.WithTimeout(cfg.Timeout()),
		provider.WithLogger(logger),
	)

	tracker := progress.NewTracker()
	exec := executor.New(client, repo, tracker, logger)

	return &App{
		Cfg:     cfg,
		Repo:    repo,
		Orch:    orchestrator.New(repo, exec, logger),
		Tracker: tracker,
		Logger:  logger,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.Repo.Close()
}
