package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/partition"
	"github.com/vk/buildgrid/internal/plan"
	"github.com/vk/buildgrid/internal/target"
)

// worker is the processing loop of one pool member.
func (e *Engine) worker(ctx context.Context, workerID int, work <-chan job, done chan<- result) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for j := range work {
		jobCtx, jobLogger := ctxlog.With(ctx, "workerID", workerID, "target", j.entry.Name())
		jobLogger.Debug("Worker picked up target for execution.")

		start := time.Now()
		outcome := e.execute(jobCtx, j.entry.Target)
		outcome.Duration = time.Since(start)
		done <- result{index: j.index, outcome: outcome}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// execute checks the preconditions of def and runs its body, once or once per
// partition. Bodies get a context that is not cancelled with the run, so a
// body that has started is allowed to finish.
func (e *Engine) execute(ctx context.Context, def *target.Definition) plan.Outcome {
	out := plan.Outcome{Name: def.Name, Status: plan.Succeeded}

	for _, cond := range def.Requires {
		ok, err := cond.Holds()
		if err != nil || !ok {
			out.Status = plan.Failed
			out.Err = &PreconditionError{Target: def.Name, Condition: cond.Description, Err: err}
			return out
		}
	}
	if def.Body == nil {
		return out
	}

	bodyCtx := context.WithoutCancel(ctx)
	var items []string
	if def.Items != nil {
		var err error
		if items, err = def.Items(bodyCtx); err != nil {
			out.Status = plan.Failed
			out.Err = &BodyExecutionError{Target: def.Name, Partition: -1, Err: fmt.Errorf("listing items: %w", err)}
			return out
		}
	}

	if !def.Partitioned() {
		if err := e.invoke(bodyCtx, def, -1, items); err != nil {
			out.Status = plan.Failed
			out.Err = &BodyExecutionError{Target: def.Name, Partition: -1, Err: err}
		}
		return out
	}

	indices, err := e.partitionIndices(def)
	if err != nil {
		out.Status = plan.Failed
		out.Err = err
		return out
	}

	var errs PartitionErrors
	for _, i := range indices {
		slice, err := partition.Split(items, def.PartitionCount, i)
		if err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		po := plan.PartitionOutcome{Index: i, Items: len(slice), Status: plan.Succeeded}
		if err := e.invoke(bodyCtx, def, i, slice); err != nil {
			po.Status = plan.Failed
			po.Err = &BodyExecutionError{Target: def.Name, Partition: i, Err: err}
			errs = append(errs, po.Err)
		}
		po.Duration = time.Since(start)
		out.Partitions = append(out.Partitions, po)

		if po.Err != nil && !def.ProceedAfterFailure {
			break
		}
	}

	switch len(errs) {
	case 0:
	case 1:
		out.Status = plan.Failed
		out.Err = errs[0]
	default:
		out.Status = plan.Failed
		out.Err = errs
	}
	return out
}

// partitionIndices returns every partition of def, or only the one pinned by
// a "partition.<Target>" parameter.
func (e *Engine) partitionIndices(def *target.Definition) ([]int, error) {
	key := partition.Param(def.Name)
	raw, ok := e.cfg.Params.Lookup(key)
	if !ok {
		indices := make([]int, def.PartitionCount)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	i, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("parameter '%s': %w", key, err)
	}
	if err := partition.Bounds(def.PartitionCount, i); err != nil {
		return nil, err
	}
	return []int{i}, nil
}

// invoke runs one body call and turns a panic into an error.
func (e *Engine) invoke(ctx context.Context, def *target.Definition, partitionIndex int, items []string) (err error) {
	inv := &target.Invocation{
		Target:  def.Name,
		RunID:   e.cfg.RunID,
		Items:   items,
		Params:  e.cfg.Params,
		Invoked: e.cfg.Invoked,
	}
	attrs := []any{}
	if partitionIndex >= 0 {
		inv.Partition = partitionIndex
		inv.PartitionCount = def.PartitionCount
		attrs = append(attrs, "partition", partitionIndex, "partition_count", def.PartitionCount)
	}
	ctx, logger := ctxlog.With(ctx, attrs...)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Target body panicked.", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	logger.Debug("Invoking target body.", "items", len(items))
	return def.Body(ctx, inv)
}
