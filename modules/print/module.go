package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/internal/ctxlog"
)

// Module implements the actions.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print action.
type Input struct {
	Message string            `hcl:"message,optional"`
	Value   map[string]string `hcl:"value,optional"`
}

// Run is the handler for the 'print' action.
func Run(ctx context.Context, call *actions.Call) error {
	var input Input
	if err := call.Args.Decode(&input); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Printing input", "message", input.Message)

	var w io.Writer = os.Stdout
	if call.Stdout != nil {
		w = call.Stdout
	}

	if input.Message != "" {
		fmt.Fprintf(w, "[%s] %s\n", call.Invocation.Target, input.Message)
	}
	if input.Value == nil {
		return nil
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(input.Value))
	for k := range input.Value {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "      %s = %q\n", k, input.Value[k])
	}
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *actions.Registry) {
	r.Register("print", Run)
}
