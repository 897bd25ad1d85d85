package exec

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/toolexec"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"
)

// Module implements the actions.Module interface for this package.
type Module struct{}

// Input defines the arguments of an `action "exec"` block.
type Input struct {
	Command string            `hcl:"command"`
	Args    []string          `hcl:"args,optional"`
	Dir     string            `hcl:"dir,optional"`
	Env     map[string]string `hcl:"env,optional"`

	PerItem           bool `hcl:"per_item,optional"`
	Parallelism       int  `hcl:"parallelism,optional"`
	CompleteOnFailure bool `hcl:"complete_on_failure,optional"`
}

// control is decoded first, before `item` exists in the evaluation context.
type control struct {
	PerItem           bool     `hcl:"per_item,optional"`
	Parallelism       int      `hcl:"parallelism,optional"`
	CompleteOnFailure bool     `hcl:"complete_on_failure,optional"`
	Remain            hcl.Body `hcl:",remain"`
}

// Run is the handler for the 'exec' action.
func Run(ctx context.Context, call *actions.Call) error {
	var ctl control
	if err := call.Args.Decode(&ctl); err != nil {
		return err
	}
	var stream io.Writer
	if call.Stdout != nil {
		stream = toolexec.NewSyncWriter(call.Stdout)
	}
	if !ctl.PerItem {
		return runOne(ctx, call, call.Args, stream)
	}

	items := call.Invocation.Items
	limit := ctl.Parallelism
	if limit < 1 {
		limit = 1
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running command per item.", "items", len(items), "parallelism", limit, "complete_on_failure", ctl.CompleteOnFailure)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	var errs []error
	for _, item := range items {
		args := call.Args.With("item", cty.StringVal(item))
		g.Go(func() error {
			if ctl.CompleteOnFailure {
				if err := runOne(ctx, call, args, stream); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
				return nil
			}
			if gctx.Err() != nil {
				return nil
			}
			return runOne(gctx, call, args, stream)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// runOne runs a single command. Output goes to stream while the process runs,
// or to the log once it finishes when stream is nil.
func runOne(ctx context.Context, call *actions.Call, args actions.Args, stream io.Writer) error {
	var in Input
	if err := args.Decode(&in); err != nil {
		return err
	}

	dir := in.Dir
	if dir == "" {
		dir = call.Dir
	} else if !filepath.IsAbs(dir) && call.Dir != "" {
		dir = filepath.Join(call.Dir, dir)
	}

	cmd := toolexec.Command{Name: in.Command, Args: in.Args, Dir: dir, Env: in.Env, Stream: stream}
	logger := ctxlog.FromContext(ctx).With("command", cmd.String())
	logger.Info("Running command.")

	res, err := call.Runner.Run(ctx, cmd)
	if out := res.Output(); out != "" && stream == nil {
		logger.Info("Command output.", "output", out)
	}
	if err != nil {
		return err
	}
	logger.Debug("Command finished.", "duration", res.Duration)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *actions.Registry) {
	r.Register("exec", Run)
}
