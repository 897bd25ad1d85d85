package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges them into one model.
// Targets keep the order in which they appear, file by file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	if len(paths) == 0 {
		return nil, fmt.Errorf("no build file given")
	}

	hclFiles, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := &config.Model{BaseDir: baseDir(paths[0])}
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if root.DefaultTarget != nil {
			if model.DefaultTarget != "" && model.DefaultTarget != *root.DefaultTarget {
				return nil, fmt.Errorf("default_target set to both '%s' and '%s' (in %s)", model.DefaultTarget, *root.DefaultTarget, file)
			}
			model.DefaultTarget = *root.DefaultTarget
		}
		for _, p := range root.Parameters {
			model.Parameters = append(model.Parameters, translateParameter(p))
		}
		for _, t := range root.Targets {
			model.Targets = append(model.Targets, translateTarget(ctx, t, hclFile.Bytes))
		}
	}

	logger.Debug("HCL loading complete.", "targets", len(model.Targets), "parameters", len(model.Parameters), "default_target", model.DefaultTarget)
	return model, nil
}

// baseDir is the directory of a build file, or the directory itself.
func baseDir(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
