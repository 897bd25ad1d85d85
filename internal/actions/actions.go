package actions

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/buildgrid/internal/target"
	"github.com/vk/buildgrid/internal/toolexec"
	"github.com/zclconf/go-cty/cty"
)

// Args is the raw argument body of an action block together with the
// evaluation context of the current invocation.
type Args struct {
	Body hcl.Body
	Eval *hcl.EvalContext
}

// Decode evaluates the body into out, a pointer to a struct with hcl tags.
func (a Args) Decode(out any) error {
	if diags := gohcl.DecodeBody(a.Body, a.Eval, out); diags.HasErrors() {
		return diags
	}
	return nil
}

// With returns Args whose context additionally defines name.
func (a Args) With(name string, v cty.Value) Args {
	var child *hcl.EvalContext
	if a.Eval == nil {
		child = &hcl.EvalContext{}
	} else {
		child = a.Eval.NewChild()
	}
	child.Variables = map[string]cty.Value{name: v}
	return Args{Body: a.Body, Eval: child}
}

// Call is everything a handler receives for one invocation.
type Call struct {
	Invocation *target.Invocation
	Args       Args
	// Dir is the directory relative paths are resolved from.
	Dir    string
	Runner toolexec.Runner
	Stdout io.Writer
}

// Handler runs one action.
type Handler func(ctx context.Context, call *Call) error

// Module is implemented by every package that contributes actions.
type Module interface {
	Register(r *Registry)
}

// Registry maps action types to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates a registry and registers every module in it.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a handler. Registering a type twice is a programming error.
func (r *Registry) Register(actionType string, h Handler) {
	if _, exists := r.handlers[actionType]; exists {
		panic(fmt.Sprintf("action type '%s' registered twice", actionType))
	}
	r.handlers[actionType] = h
}

// Lookup returns the handler for actionType.
func (r *Registry) Lookup(actionType string) (Handler, error) {
	h, ok := r.handlers[actionType]
	if !ok {
		return nil, fmt.Errorf("unknown action type '%s' (known: %v)", actionType, r.Types())
	}
	return h, nil
}

// Types returns the registered action types in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
