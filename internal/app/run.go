package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vk/buildgrid/internal/builder"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/executor"
	"github.com/vk/buildgrid/internal/params"
	"github.com/vk/buildgrid/internal/registry"
	"github.com/vk/buildgrid/internal/report"
	"github.com/vk/buildgrid/internal/resolver"
)

// ConfigError marks failures that happen before any target runs: loading,
// building and resolving. They map to report.ExitConfigError.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// Run loads the build file, resolves the requested targets and executes the
// plan. It returns the process exit code. A non-nil error is always a
// *ConfigError or an output failure; failed targets only show in the code.
func (a *App) Run(ctx context.Context) (int, error) {
	runID := uuid.NewString()
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.", "run_id", runID)

	model, err := a.loader.Load(ctx, a.config.BuildPath)
	if err != nil {
		return report.ExitConfigError, &ConfigError{Err: fmt.Errorf("failed to load build file: %w", err)}
	}

	bag, err := a.loadParams(builder.Declarations(model))
	if err != nil {
		return report.ExitConfigError, &ConfigError{Err: err}
	}

	requested := a.config.Targets
	if len(requested) == 0 && model.DefaultTarget != "" {
		requested = []string{model.DefaultTarget}
	}

	reg, err := builder.New(builder.Options{
		Params:  bag,
		Invoked: requested,
		Actions: a.actions,
		Runner:  a.runner,
		Stdout:  a.outW,
	}).Build(ctx, model)
	if err != nil {
		return report.ExitConfigError, &ConfigError{Err: fmt.Errorf("failed to build targets: %w", err)}
	}
	logger.Debug("Targets registered.", "count", reg.Len())

	if a.config.ListOnly {
		fmt.Fprint(a.outW, report.RenderTargets(reg.All(), model.DefaultTarget))
		return report.ExitOK, nil
	}
	if len(requested) == 0 {
		return report.ExitConfigError, &ConfigError{Err: errors.New("no target requested and the build file has no default_target")}
	}

	if err := checkSkips(reg, a.config.Skip); err != nil {
		return report.ExitConfigError, &ConfigError{Err: err}
	}
	p, err := resolver.New(reg, resolver.Options{
		Exclude:         a.config.Skip,
		SkipUnrequested: a.config.SkipUnrequested,
	}).Resolve(ctx, requested)
	if err != nil {
		return report.ExitConfigError, &ConfigError{Err: err}
	}

	if a.config.PlanOnly {
		fmt.Fprint(a.outW, report.RenderPlan(p))
		return report.ExitOK, nil
	}

	if a.config.MetricsPort > 0 {
		if err := a.startServer(a.config.MetricsPort); err != nil {
			return report.ExitConfigError, &ConfigError{Err: err}
		}
		defer a.stopServer(ctx)
	}

	logger.Info("Starting build.", "run_id", runID, "targets", requested, "workers", a.config.Workers)
	a.metrics.RunStarted()
	started := time.Now()
	outcomes, err := executor.New(executor.Config{
		Workers:   a.config.Workers,
		RunID:     runID,
		Params:    bag,
		Invoked:   requested,
		Observers: []executor.Observer{a.metrics},
	}).Run(ctx, p)
	if err != nil {
		return report.ExitConfigError, &ConfigError{Err: err}
	}
	finished := time.Now()

	code, text := report.Summarize(outcomes)
	fmt.Fprint(a.outW, text)

	if a.config.ReportFile != "" {
		doc := report.NewDocument(runID, started, finished, outcomes)
		if err := report.WriteFile(a.config.ReportFile, doc); err != nil {
			return code, err
		}
	}
	if a.config.MetricsFile != "" {
		if err := a.metrics.WriteFile(a.config.MetricsFile); err != nil {
			return code, err
		}
	}

	logger.Debug("App.Run method finished.", "exit_code", code)
	return code, nil
}

func (a *App) loadParams(decls []params.Declaration) (*params.Bag, error) {
	src := params.Sources{
		Declarations: decls,
		Environ:      a.config.Environ,
		Overrides:    a.config.Params,
	}
	if src.Environ == nil {
		src.Environ = os.Environ()
	}
	if a.config.ParamsFile != "" {
		values, err := params.LoadFile(a.config.ParamsFile)
		if err != nil {
			return nil, err
		}
		src.File = values
	}
	return params.Load(src), nil
}

// checkSkips rejects -skip names that are not targets at all.
func checkSkips(reg *registry.Registry, skip []string) error {
	for _, name := range skip {
		if _, err := reg.Resolve(name); err != nil {
			return fmt.Errorf("-skip: %w", err)
		}
	}
	return nil
}
