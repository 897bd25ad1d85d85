package executor

import (
	"context"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/plan"
)

// Observer is notified from the dispatcher goroutine whenever a target
// reaches a terminal state. Implementations must not block.
type Observer interface {
	TargetFinished(ctx context.Context, outcome plan.Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, outcome plan.Outcome)

func (f ObserverFunc) TargetFinished(ctx context.Context, outcome plan.Outcome) { f(ctx, outcome) }

// logObserver writes one line per finished target.
type logObserver struct{}

func (logObserver) TargetFinished(ctx context.Context, o plan.Outcome) {
	logger := ctxlog.FromContext(ctx).With("target", o.Name, "status", o.Status.String(), "duration", o.Duration)
	switch o.Status {
	case plan.Failed:
		logger.Error("Target failed.", "error", o.Err)
	case plan.Skipped:
		logger.Info("Target skipped.", "reason", o.Reason)
	default:
		logger.Info("Target succeeded.")
	}
}
