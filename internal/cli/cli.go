package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/buildgrid/internal/app"
	"github.com/vk/buildgrid/internal/params"
	"github.com/vk/buildgrid/internal/report"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// listFlag collects comma separated values across repeated flags.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// paramFlag collects repeated key=value parameters.
type paramFlag map[string]string

func (p paramFlag) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (p paramFlag) Set(v string) error {
	key, value, err := params.ParseAssignment(v)
	if err != nil {
		return err
	}
	p[key] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("buildgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
buildgrid - A declarative build target orchestrator.

Usage:
  buildgrid [options] [TARGET ...]

Arguments:
  TARGET
    Targets to run. Defaults to the build file's default_target.

Options:
`)
		flagSet.PrintDefaults()
	}

	var targets, skip listFlag
	overrides := paramFlag{}

	fileFlag := flagSet.String("file", "build.hcl", "Path to the build file or a directory of .hcl files.")
	fFlag := flagSet.String("f", "", "Path to the build file or directory (shorthand).")
	flagSet.Var(&targets, "target", "Target to run. Repeatable, comma separated lists allowed.")
	flagSet.Var(overrides, "p", "Parameter as key=value. Repeatable.")
	paramsFileFlag := flagSet.String("params", "", "YAML or TOML parameter file.")
	flagSet.Var(&skip, "skip", "Targets to exclude, comma separated.")
	skipUnrequestedFlag := flagSet.Bool("skip-unrequested", false, "Skip every target that was not explicitly requested.")
	workersFlag := flagSet.Int("workers", 1, "Maximum number of targets running at once.")
	planFlag := flagSet.Bool("plan", false, "Print the execution plan and exit.")
	listFlagVal := flagSet.Bool("list", false, "List the defined targets and exit.")
	reportFileFlag := flagSet.String("report-file", "", "Write target outcomes to this YAML file.")
	metricsFileFlag := flagSet.String("metrics-file", "", "Write Prometheus metrics to this file after the run.")
	metricsPortFlag := flagSet.Int("metrics-port", 0, "Port for the /metrics and /health server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: report.ExitConfigError, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *fileFlag
	if *fFlag != "" {
		path = *fFlag
	}
	targets = append(targets, flagSet.Args()...)
	slog.Debug("Build path determined.", "path", path, "targets", []string(targets))

	config, err := app.NewConfig(app.Config{
		BuildPath:       path,
		Targets:         targets,
		Params:          overrides,
		ParamsFile:      *paramsFileFlag,
		Skip:            skip,
		SkipUnrequested: *skipUnrequestedFlag,
		Workers:         *workersFlag,
		PlanOnly:        *planFlag,
		ListOnly:        *listFlagVal,
		ReportFile:      *reportFileFlag,
		MetricsFile:     *metricsFileFlag,
		MetricsPort:     *metricsPortFlag,
		LogFormat:       *logFormatFlag,
		LogLevel:        *logLevelFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: report.ExitConfigError, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
