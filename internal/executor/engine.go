package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/params"
	"github.com/vk/buildgrid/internal/plan"
)

// Skip reasons decided while running.
const (
	ReasonCancelled       = "cancelled"
	ReasonTriggerFailed   = "trigger failed"
	ReasonTriggersSkipped = "all triggers skipped"
)

// Config holds the settings of an Engine.
type Config struct {
	// Workers bounds how many bodies run at once. Values below one mean one.
	Workers int
	RunID   string
	Params  *params.Bag
	// Invoked are the explicitly requested targets, exposed to bodies.
	Invoked   []string
	Observers []Observer
}

// Engine executes plans. It keeps no state between runs.
type Engine struct {
	cfg       Config
	observers []Observer
}

// New creates an Engine.
func New(cfg Config) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:       cfg,
		observers: append([]Observer{logObserver{}}, cfg.Observers...),
	}
}

type job struct {
	index int
	entry plan.Entry
}

type result struct {
	index   int
	outcome plan.Outcome
}

// run is the dispatcher state of a single Run call. Only the dispatcher
// goroutine touches it.
type run struct {
	engine     *Engine
	plan       *plan.Plan
	index      map[string]int
	outcomes   []plan.Outcome
	blocked    []bool
	remaining  []int
	dependents [][]int
	ready      []int
	inFlight   int
	finished   int
	work       chan<- job
}

// Run executes p and returns one outcome per entry in plan order. It blocks
// until every entry is terminal. An error is returned only when the plan
// itself is unusable; target failures are reported through the outcomes.
func (e *Engine) Run(ctx context.Context, p *plan.Plan) ([]plan.Outcome, error) {
	index, err := validate(p)
	if err != nil {
		return nil, err
	}
	if e.cfg.RunID != "" {
		ctx, _ = ctxlog.With(ctx, "run_id", e.cfg.RunID)
	}
	logger := ctxlog.FromContext(ctx)

	n := len(p.Entries)
	if n == 0 {
		return []plan.Outcome{}, nil
	}

	work := make(chan job, n)
	done := make(chan result, n)
	r := &run{
		engine:     e,
		plan:       p,
		index:      index,
		outcomes:   make([]plan.Outcome, n),
		blocked:    make([]bool, n),
		remaining:  make([]int, n),
		dependents: make([][]int, n),
		work:       work,
	}
	for i, entry := range p.Entries {
		r.outcomes[i] = plan.Outcome{Name: entry.Name(), Status: plan.Pending}
		r.remaining[i] = len(entry.Waits)
		for _, w := range entry.Waits {
			j := index[w]
			r.dependents[j] = append(r.dependents[j], i)
		}
	}

	workers := min(e.cfg.Workers, n)
	logger.Info("Starting execution.", "targets", n, "runnable", p.Runnable(), "workers", workers)

	var wg sync.WaitGroup
	for id := 1; id <= workers; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e.worker(ctx, id, work, done)
		}(id)
	}

	for i := range p.Entries {
		if r.remaining[i] == 0 {
			r.push(i)
		}
	}
	r.pump(ctx)
	for r.finished < n {
		res := <-done
		r.inFlight--
		r.record(ctx, res.index, res.outcome)
		r.pump(ctx)
	}

	close(work)
	wg.Wait()
	logger.Info("Execution finished.", "targets", n)
	return r.outcomes, nil
}

// validate checks that every wait edge points at an earlier entry, which
// guarantees the dispatcher always makes progress.
func validate(p *plan.Plan) (map[string]int, error) {
	if p == nil {
		return nil, &InvalidPlanError{Reason: "plan is nil"}
	}
	index := make(map[string]int, len(p.Entries))
	for i, entry := range p.Entries {
		if entry.Target == nil {
			return nil, &InvalidPlanError{Reason: fmt.Sprintf("entry %d has no target", i)}
		}
		if _, dup := index[entry.Name()]; dup {
			return nil, &InvalidPlanError{Reason: fmt.Sprintf("target '%s' appears twice", entry.Name())}
		}
		for _, group := range [][]string{entry.Waits, entry.Needs, entry.Triggers} {
			for _, w := range group {
				if _, ok := index[w]; !ok {
					return nil, &InvalidPlanError{Reason: fmt.Sprintf("target '%s' waits on '%s', which is not earlier in the plan", entry.Name(), w)}
				}
			}
		}
		index[entry.Name()] = i
	}
	return index, nil
}

func (r *run) push(i int) {
	pos := sort.SearchInts(r.ready, i)
	r.ready = append(r.ready, 0)
	copy(r.ready[pos+1:], r.ready[pos:])
	r.ready[pos] = i
}

// pump settles every ready entry that needs no worker and dispatches the rest
// while worker capacity lasts.
func (r *run) pump(ctx context.Context) {
	for progressed := true; progressed; {
		progressed = false
		var deferred []int
		for len(r.ready) > 0 {
			i := r.ready[0]
			r.ready = r.ready[1:]

			if outcome, ok := r.settle(ctx, i); ok {
				r.record(ctx, i, outcome)
				progressed = true
				continue
			}
			if r.inFlight < r.engine.cfg.Workers {
				r.outcomes[i].Status = plan.Running
				r.inFlight++
				r.work <- job{index: i, entry: r.plan.Entries[i]}
				progressed = true
				continue
			}
			deferred = append(deferred, i)
		}
		for _, i := range deferred {
			r.push(i)
		}
	}
}

// settle decides the outcome of entries that must not run.
func (r *run) settle(ctx context.Context, i int) (plan.Outcome, bool) {
	entry := r.plan.Entries[i]
	out := plan.Outcome{Name: entry.Name()}

	if entry.Skip {
		out.Status = plan.Skipped
		out.Reason = entry.SkipReason
		return out, true
	}

	for _, need := range entry.Needs {
		j := r.index[need]
		dep := r.plan.Entries[j]
		if r.outcomes[j].Status == plan.Failed && (r.blocked[j] || !dep.Target.ProceedAfterFailure) {
			r.blocked[i] = true
			out.Status = plan.Failed
			out.Err = &BlockedByDependencyError{Target: entry.Name(), Dependency: need}
			return out, true
		}
	}

	if entry.TriggeredOnly && len(entry.Triggers) > 0 {
		failed, succeeded := false, false
		for _, trigger := range entry.Triggers {
			switch r.outcomes[r.index[trigger]].Status {
			case plan.Succeeded:
				succeeded = true
			case plan.Failed:
				failed = true
			}
		}
		if !succeeded {
			out.Status = plan.Skipped
			out.Reason = ReasonTriggersSkipped
			if failed {
				out.Reason = ReasonTriggerFailed
			}
			return out, true
		}
	}

	if ctx.Err() != nil {
		out.Status = plan.Skipped
		out.Err = &CancelledError{Target: entry.Name(), Cause: context.Cause(ctx)}
		out.Reason = ReasonCancelled
		return out, true
	}
	return out, false
}

func (r *run) record(ctx context.Context, i int, outcome plan.Outcome) {
	def := r.plan.Entries[i].Target
	outcome.Produces, outcome.Consumes = def.Produces, def.Consumes
	r.outcomes[i] = outcome
	r.finished++
	for _, o := range r.engine.observers {
		o.TargetFinished(ctx, outcome)
	}
	for _, d := range r.dependents[i] {
		r.remaining[d]--
		if r.remaining[d] == 0 {
			r.push(d)
		}
	}
}
