package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/dag"
	"github.com/vk/buildgrid/internal/plan"
	"github.com/vk/buildgrid/internal/registry"
	"github.com/vk/buildgrid/internal/target"
)

// buildRegistry mirrors a small .NET style build: Clean, Restore, Compile, Test.
func buildRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.MustRegister(
		&target.Definition{Name: "Clean"},
		&target.Definition{Name: "Restore", After: []string{"Clean"}},
		&target.Definition{Name: "Compile", DependsOn: []string{"Restore"}},
		&target.Definition{Name: "Test", DependsOn: []string{"Compile"}, PartitionCount: 2},
	)
	return r
}

func TestResolve_OrderAndOrderingOnlyEntries(t *testing.T) {
	p, err := New(buildRegistry(t), Options{}).Resolve(context.Background(), []string{"Test"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Clean", "Restore", "Compile", "Test"}, p.Names())

	clean, ok := p.Entry("Clean")
	require.True(t, ok)
	assert.True(t, clean.OrderingOnly)
	assert.True(t, clean.Skip)
	assert.Equal(t, ReasonOrderingOnly, clean.SkipReason)

	test, _ := p.Entry("Test")
	assert.True(t, test.Requested)
	assert.False(t, test.Skip)
	assert.Equal(t, []string{"Compile"}, test.Needs)

	restore, _ := p.Entry("Restore")
	assert.Equal(t, []string{"Clean"}, restore.Waits)
	assert.Empty(t, restore.Needs, "ordering edges never gate on success")
	assert.Equal(t, 3, p.Runnable())
}

func TestResolve_UnknownTarget(t *testing.T) {
	_, err := New(buildRegistry(t), Options{}).Resolve(context.Background(), []string{"Deploy"})

	var unknown *registry.UnknownTargetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Deploy", unknown.Name)
	assert.Empty(t, unknown.Referrer)
}

func TestResolve_UnknownReference(t *testing.T) {
	r := registry.New()
	r.MustRegister(&target.Definition{Name: "Pack", DependsOn: []string{"Compyle"}})

	_, err := New(r, Options{}).Resolve(context.Background(), []string{"Pack"})

	var unknown *registry.UnknownTargetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Compyle", unknown.Name)
	assert.Equal(t, "Pack", unknown.Referrer)
}

func TestResolve_NothingRequested(t *testing.T) {
	_, err := New(buildRegistry(t), Options{}).Resolve(context.Background(), nil)
	assert.Error(t, err)
}

func TestResolve_Cycle(t *testing.T) {
	testCases := []struct {
		name string
		defs []*target.Definition
	}{
		{
			name: "hard edges",
			defs: []*target.Definition{
				{Name: "A", DependsOn: []string{"B"}},
				{Name: "B", DependsOn: []string{"A"}},
			},
		},
		{
			name: "ordering edge closes the loop",
			defs: []*target.Definition{
				{Name: "A", DependsOn: []string{"B"}},
				{Name: "B", After: []string{"A"}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := registry.New()
			r.MustRegister(tc.defs...)

			_, err := New(r, Options{}).Resolve(context.Background(), []string{"A"})

			var cycle *dag.CycleDetectedError
			require.True(t, errors.As(err, &cycle), "got %v", err)
			assert.NotEmpty(t, cycle.Path)
		})
	}
}

func TestResolve_CycleOutsideRequestIsIgnored(t *testing.T) {
	r := registry.New()
	r.MustRegister(
		&target.Definition{Name: "A"},
		&target.Definition{Name: "X", DependsOn: []string{"Y"}},
		&target.Definition{Name: "Y", DependsOn: []string{"X"}},
	)

	p, err := New(r, Options{}).Resolve(context.Background(), []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, p.Names())
}

func TestResolve_Idempotent(t *testing.T) {
	res := New(buildRegistry(t), Options{Exclude: []string{"Restore"}})

	first, err := res.Resolve(context.Background(), []string{"Test", "Compile"})
	require.NoError(t, err)
	second, err := res.Resolve(context.Background(), []string{"Test", "Compile"})
	require.NoError(t, err)

	if diff := cmp.Diff(summarize(first), summarize(second)); diff != "" {
		t.Errorf("plans differ (-first +second):\n%s", diff)
	}
}

func TestResolve_DeclarationOrderBreaksTies(t *testing.T) {
	r := registry.New()
	r.MustRegister(
		&target.Definition{Name: "Lint"},
		&target.Definition{Name: "Docs"},
		&target.Definition{Name: "Build"},
		&target.Definition{Name: "All", DependsOn: []string{"Build", "Docs", "Lint"}},
	)

	p, err := New(r, Options{}).Resolve(context.Background(), []string{"All"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lint", "Docs", "Build", "All"}, p.Names())
}

func TestResolve_Triggers(t *testing.T) {
	newRegistry := func() *registry.Registry {
		r := registry.New()
		r.MustRegister(
			&target.Definition{Name: "Compile"},
			&target.Definition{Name: "Test", DependsOn: []string{"Compile"}},
			&target.Definition{Name: "Coverage", DependsOn: []string{"Report"}, TriggeredBy: []string{"Test"}},
			&target.Definition{Name: "Report"},
			&target.Definition{Name: "Notify", TriggeredBy: []string{"Coverage"}},
		)
		return r
	}

	t.Run("fixed point pulls in triggered targets and their dependencies", func(t *testing.T) {
		p, err := New(newRegistry(), Options{}).Resolve(context.Background(), []string{"Test"})
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"Compile", "Test", "Coverage", "Report", "Notify"}, p.Names())
		assert.Less(t, p.Index("Test"), p.Index("Coverage"))
		assert.Less(t, p.Index("Coverage"), p.Index("Notify"))

		coverage, _ := p.Entry("Coverage")
		assert.True(t, coverage.TriggeredOnly)
		assert.Equal(t, []string{"Report"}, coverage.Needs)
		assert.Equal(t, []string{"Test"}, coverage.Triggers)
	})

	t.Run("not pulled in when the trigger is absent", func(t *testing.T) {
		p, err := New(newRegistry(), Options{}).Resolve(context.Background(), []string{"Compile"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Compile"}, p.Names())
	})

	t.Run("skipped when every trigger is skipped", func(t *testing.T) {
		p, err := New(newRegistry(), Options{Exclude: []string{"Test"}}).Resolve(context.Background(), []string{"Test"})
		require.NoError(t, err)

		coverage, _ := p.Entry("Coverage")
		assert.True(t, coverage.Skip)
		assert.Equal(t, ReasonTriggersSkipped, coverage.SkipReason)

		notify, _ := p.Entry("Notify")
		assert.True(t, notify.Skip)
	})
}

type entrySummary struct {
	Name, Reason  string
	Skip          bool
	Waits, Needs  []string
	OrderingOnly  bool
	Requested     bool
	TriggeredOnly bool
}

func summarize(p *plan.Plan) []entrySummary {
	out := make([]entrySummary, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, entrySummary{
			Name:          e.Name(),
			Reason:        e.SkipReason,
			Skip:          e.Skip,
			Waits:         e.Waits,
			Needs:         e.Needs,
			OrderingOnly:  e.OrderingOnly,
			Requested:     e.Requested,
			TriggeredOnly: e.TriggeredOnly,
		})
	}
	return out
}
