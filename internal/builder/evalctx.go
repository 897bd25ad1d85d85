package builder

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/buildgrid/internal/params"
	"github.com/vk/buildgrid/internal/target"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// baseContext holds everything known before any target runs.
func (b *Builder) baseContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"param":   paramObject(b.opts.Params),
			"invoked": stringList(b.opts.Invoked),
		},
		Functions: b.functions(),
	}
}

// invocationContext adds the per-invocation variables on top of base.
func invocationContext(base *hcl.EvalContext, inv *target.Invocation) *hcl.EvalContext {
	child := base.NewChild()
	child.Variables = map[string]cty.Value{
		"target": cty.ObjectVal(map[string]cty.Value{
			"name": cty.StringVal(inv.Target),
		}),
		"partition": cty.ObjectVal(map[string]cty.Value{
			"index": cty.NumberIntVal(int64(inv.Partition)),
			"count": cty.NumberIntVal(int64(inv.PartitionCount)),
		}),
		"items":  stringList(inv.Items),
		"run_id": cty.StringVal(inv.RunID),
	}
	return child
}

// paramObject exposes every parameter as a string attribute. Declared
// parameters without a value are present as "".
func paramObject(bag *params.Bag) cty.Value {
	attrs := make(map[string]cty.Value)
	for _, d := range bag.Declarations() {
		attrs[params.Normalize(d.Name)] = cty.StringVal("")
	}
	for k, v := range bag.Values() {
		attrs[k] = cty.StringVal(v)
	}
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

func stringList(items []string) cty.Value {
	if len(items) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(items))
	for i, s := range items {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}

func (b *Builder) functions() map[string]function.Function {
	return map[string]function.Function{
		"upper":       stdlib.UpperFunc,
		"lower":       stdlib.LowerFunc,
		"length":      stdlib.LengthFunc,
		"join":        stdlib.JoinFunc,
		"format":      stdlib.FormatFunc,
		"coalesce":    stdlib.CoalesceFunc,
		"replace":     stdlib.ReplaceFunc,
		"trimspace":   stdlib.TrimSpaceFunc,
		"env":         b.envFunc(),
		"was_invoked": b.wasInvokedFunc(),
	}
}

func (b *Builder) envFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "name", Type: cty.String}},
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.StringVal(b.opts.Getenv(args[0].AsString())), nil
		},
	})
}

func (b *Builder) wasInvokedFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "name", Type: cty.String}},
		Type:   function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			inv := target.Invocation{Invoked: b.opts.Invoked}
			return cty.BoolVal(inv.WasInvoked(args[0].AsString())), nil
		},
	})
}
