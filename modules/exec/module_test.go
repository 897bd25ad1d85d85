package exec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/actions"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/target"
	"github.com/vk/buildgrid/internal/toolexec"
)

// fakeRunner records commands and fails the ones whose first arg is in fail.
type fakeRunner struct {
	mu   sync.Mutex
	cmds []toolexec.Command
	fail map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, cmd toolexec.Command) (toolexec.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	if cmd.Stream != nil {
		_, _ = cmd.Stream.Write([]byte("ok\n"))
	}
	if len(cmd.Args) > 0 && f.fail[cmd.Args[len(cmd.Args)-1]] {
		return toolexec.Result{ExitCode: 1}, &toolexec.CommandError{Command: cmd.String(), ExitCode: 1}
	}
	return toolexec.Result{Stdout: []byte("ok")}, nil
}

func (f *fakeRunner) lastArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.cmds {
		out = append(out, c.Args[len(c.Args)-1])
	}
	sort.Strings(out)
	return out
}

func newCall(t *testing.T, src string, runner toolexec.Runner, items ...string) *actions.Call {
	t.Helper()
	file, diags := hclsyntax.ParseConfig([]byte(src), "action.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return &actions.Call{
		Invocation: &target.Invocation{Target: "Test", Items: items},
		Args:       actions.Args{Body: file.Body, Eval: &hcl.EvalContext{}},
		Dir:        "/work",
		Runner:     runner,
	}
}

func TestRun_Single(t *testing.T) {
	runner := &fakeRunner{}
	call := newCall(t, `
command = "dotnet"
args    = ["build", "--no-restore"]
dir     = "src"
env     = { DOTNET_NOLOGO = "1" }
`, runner)

	require.NoError(t, Run(context.Background(), call))

	require.Len(t, runner.cmds, 1)
	cmd := runner.cmds[0]
	assert.Equal(t, "dotnet", cmd.Name)
	assert.Equal(t, []string{"build", "--no-restore"}, cmd.Args)
	assert.Equal(t, "/work/src", cmd.Dir)
	assert.Equal(t, map[string]string{"DOTNET_NOLOGO": "1"}, cmd.Env)
}

func TestRun_PerItem(t *testing.T) {
	src := `
command     = "go"
args        = ["test", item]
per_item    = true
parallelism = 2
`
	t.Run("runs every item", func(t *testing.T) {
		runner := &fakeRunner{}
		require.NoError(t, Run(context.Background(), newCall(t, src, runner, "./a", "./b", "./c")))
		assert.Equal(t, []string{"./a", "./b", "./c"}, runner.lastArgs())
	})

	t.Run("complete on failure attempts everything", func(t *testing.T) {
		runner := &fakeRunner{fail: map[string]bool{"./a": true, "./c": true}}
		err := Run(context.Background(), newCall(t, src+"complete_on_failure = true\n", runner, "./a", "./b", "./c"))

		require.Error(t, err)
		assert.Equal(t, []string{"./a", "./b", "./c"}, runner.lastArgs())
		var cmdErr *toolexec.CommandError
		assert.True(t, errors.As(err, &cmdErr))
	})

	t.Run("fails fast otherwise", func(t *testing.T) {
		runner := &fakeRunner{fail: map[string]bool{"./a": true}}
		src := "command = \"go\"\nargs = [\"test\", item]\nper_item = true\n"
		err := Run(context.Background(), newCall(t, src, runner, "./a", "./b", "./c"))

		require.Error(t, err)
		assert.Equal(t, []string{"./a"}, runner.lastArgs())
	})
}

func TestRun_Output(t *testing.T) {
	src := "command = \"go\"\nargs = [\"test\", item]\nper_item = true\nparallelism = 3\n"

	t.Run("streamed to stdout", func(t *testing.T) {
		var logs, stdout bytes.Buffer
		ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))
		runner := &fakeRunner{}
		call := newCall(t, src, runner, "./a", "./b", "./c")
		call.Stdout = &stdout

		require.NoError(t, Run(ctx, call))

		assert.Equal(t, 3, strings.Count(stdout.String(), "ok\n"))
		require.Len(t, runner.cmds, 3)
		for _, cmd := range runner.cmds {
			assert.Same(t, runner.cmds[0].Stream, cmd.Stream, "per-item commands share one serialized writer")
		}
		assert.NotContains(t, logs.String(), "Command output.")
	})

	t.Run("logged at info without stdout", func(t *testing.T) {
		var logs bytes.Buffer
		ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo})))
		runner := &fakeRunner{}

		require.NoError(t, Run(ctx, newCall(t, `command = "dotnet"`, runner)))

		assert.Contains(t, logs.String(), "level=INFO msg=\"Command output.\"")
		assert.Contains(t, logs.String(), "output=ok")
		assert.Nil(t, runner.cmds[0].Stream)
	})
}

func TestRun_InvalidArguments(t *testing.T) {
	runner := &fakeRunner{}
	assert.Error(t, Run(context.Background(), newCall(t, `args = ["x"]`, runner)), "command is required")
	assert.Error(t, Run(context.Background(), newCall(t, `command = "go"
args = [item]`, runner)), "item is only defined per item")
	assert.Empty(t, runner.cmds)
}

func TestRegister(t *testing.T) {
	r := actions.NewRegistry(&Module{})
	_, err := r.Lookup("exec")
	assert.NoError(t, err)
}
