package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/metrics"
	"github.com/vk/buildgrid/internal/toolexec"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	loader     config.Loader
	actions    *actions.Registry
	runner     toolexec.Runner
	metrics    *metrics.Recorder
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger, action registry and metrics registry. Report and
// plan output go to outW along with the logs.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...actions.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := actions.NewRegistry(modules...)
	logger.Debug("All action modules registered.", "count", len(modules), "types", reg.Types())

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		loader:  loader,
		actions: reg,
		runner:  toolexec.ExecRunner{},
		metrics: metrics.New(),
	}
}

// WithRunner replaces the command runner used by the exec action.
func (a *App) WithRunner(r toolexec.Runner) *App {
	a.runner = r
	return a
}

// Metrics returns the application's metrics recorder. This is primarily for testing.
func (a *App) Metrics() *metrics.Recorder {
	return a.metrics
}
