// Package clean provides the `clean` action: it deletes paths and globs, then
// recreates the listed directories empty.
package clean

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fsutil"
)

// Module implements the actions.Module interface for this package.
type Module struct{}

// Input defines the arguments for the clean action.
type Input struct {
	Paths    []string `hcl:"paths,optional"`
	Globs    []string `hcl:"globs,optional"`
	Recreate []string `hcl:"recreate,optional"`
}

// Run is the handler for the 'clean' action.
func Run(ctx context.Context, call *actions.Call) error {
	var in Input
	if err := call.Args.Decode(&in); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)

	matches, err := fsutil.Glob(call.Dir, in.Globs)
	if err != nil {
		return err
	}
	targets := append(resolve(call.Dir, in.Paths), matches...)
	for _, p := range targets {
		logger.Debug("Removing path.", "path", p)
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}

	for _, dir := range resolve(call.Dir, in.Recreate) {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger.Info("Cleaned paths.", "removed", len(targets), "recreated", len(in.Recreate))
	return nil
}

func resolve(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) && base != "" {
			p = filepath.Join(base, p)
		}
		out = append(out, p)
	}
	return out
}

// Register registers the handler with the engine.
func (m *Module) Register(r *actions.Registry) {
	r.Register("clean", Run)
}
