package builder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fsutil"
	"github.com/vk/buildgrid/internal/params"
	"github.com/vk/buildgrid/internal/registry"
	"github.com/vk/buildgrid/internal/target"
	"github.com/vk/buildgrid/internal/toolexec"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Options are the run-wide inputs of a Builder.
type Options struct {
	Params  *params.Bag
	Invoked []string
	Actions *actions.Registry
	Runner  toolexec.Runner
	Stdout  io.Writer
	// Getenv backs the env() function. Defaults to os.Getenv.
	Getenv func(string) string
}

// Builder converts a config.Model into a registry of target definitions.
type Builder struct {
	opts Options
	base *hcl.EvalContext
}

// New creates a Builder.
func New(opts Options) *Builder {
	if opts.Actions == nil {
		opts.Actions = actions.NewRegistry()
	}
	if opts.Runner == nil {
		opts.Runner = toolexec.ExecRunner{}
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	b := &Builder{opts: opts}
	b.base = b.baseContext()
	return b
}

// Declarations lists the parameter declarations of a model in the form the
// params package loads.
func Declarations(m *config.Model) []params.Declaration {
	out := make([]params.Declaration, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		out = append(out, params.Declaration{Name: p.Name, Description: p.Description, Default: p.Default, Env: p.Env})
	}
	return out
}

// Build registers every target of m, in declaration order.
func (b *Builder) Build(ctx context.Context, m *config.Model) (*registry.Registry, error) {
	logger := ctxlog.FromContext(ctx)
	reg := registry.New()

	for _, t := range m.Targets {
		def, err := b.definition(t, m.BaseDir)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(def); err != nil {
			return nil, err
		}
		logger.Debug("Registered target.", "target", def.Name, "actions", len(t.Actions), "partitions", def.PartitionCount)
	}

	if m.DefaultTarget != "" {
		if _, err := reg.Resolve(m.DefaultTarget); err != nil {
			return nil, fmt.Errorf("default_target: %w", err)
		}
	}
	return reg, nil
}

func (b *Builder) definition(t *config.Target, baseDir string) (*target.Definition, error) {
	behavior, err := target.ParseDependencyBehavior(t.WhenSkipped)
	if err != nil {
		return nil, fmt.Errorf("target '%s': %w", t.Name, err)
	}

	def := &target.Definition{
		Name:                t.Name,
		Description:         t.Description,
		DependsOn:           t.DependsOn,
		Before:              t.Before,
		After:               t.After,
		TriggeredBy:         t.TriggeredBy,
		WhenSkipped:         behavior,
		ProceedAfterFailure: t.ProceedAfterFailure,
		Produces:            t.Produces,
		Consumes:            t.Consumes,
	}
	for _, c := range t.Requires {
		def.Requires = append(def.Requires, b.condition(c))
	}
	for _, c := range t.OnlyWhen {
		def.OnlyWhen = append(def.OnlyWhen, b.condition(c))
	}

	if p := t.Partition; p != nil {
		if p.Count < 1 {
			return nil, fmt.Errorf("target '%s': partition count must be at least 1, got %d", t.Name, p.Count)
		}
		def.PartitionCount = p.Count
		def.Items = b.items(p, baseDir)
	}

	if len(t.Actions) > 0 {
		handlers := make([]actions.Handler, len(t.Actions))
		for i, a := range t.Actions {
			h, err := b.opts.Actions.Lookup(a.Type)
			if err != nil {
				return nil, fmt.Errorf("target '%s': %w", t.Name, err)
			}
			handlers[i] = h
		}
		def.Body = b.body(t, handlers, baseDir)
	}
	return def, nil
}

// condition wraps an expression that must evaluate to a bool.
func (b *Builder) condition(c config.Condition) target.Condition {
	return target.Condition{
		Description: c.Source,
		Check: func() (bool, error) {
			v, diags := c.Expr.Value(b.base)
			if diags.HasErrors() {
				return false, diags
			}
			if v.IsNull() || !v.IsKnown() {
				return false, fmt.Errorf("condition evaluated to null")
			}
			v, err := convert.Convert(v, cty.Bool)
			if err != nil {
				return false, fmt.Errorf("condition must be a bool: %w", err)
			}
			var ok bool
			if err := gocty.FromCtyValue(v, &ok); err != nil {
				return false, err
			}
			return ok, nil
		},
	}
}

// items evaluates `items` and appends the expansion of `items_glob`.
func (b *Builder) items(p *config.Partition, baseDir string) target.ItemsFunc {
	return func(context.Context) ([]string, error) {
		var out []string
		if p.Items != nil {
			v, diags := p.Items.Value(b.base)
			if diags.HasErrors() {
				return nil, diags
			}
			v, err := convert.Convert(v, cty.List(cty.String))
			if err != nil {
				return nil, fmt.Errorf("items must be a list of strings: %w", err)
			}
			if !v.IsNull() {
				if err := gocty.FromCtyValue(v, &out); err != nil {
					return nil, err
				}
			}
		}
		matches, err := fsutil.Glob(baseDir, p.ItemsGlob)
		if err != nil {
			return nil, err
		}
		return append(out, matches...), nil
	}
}

// body runs the bound handlers in order and stops at the first error.
func (b *Builder) body(t *config.Target, handlers []actions.Handler, baseDir string) target.Body {
	return func(ctx context.Context, inv *target.Invocation) error {
		evalCtx := invocationContext(b.base, inv)
		for i, a := range t.Actions {
			call := &actions.Call{
				Invocation: inv,
				Args:       actions.Args{Body: a.Body, Eval: evalCtx},
				Dir:        baseDir,
				Runner:     b.opts.Runner,
				Stdout:     b.opts.Stdout,
			}
			if err := handlers[i](ctx, call); err != nil {
				return fmt.Errorf("action '%s' (#%d): %w", a.Type, i+1, err)
			}
		}
		return nil
	}
}
