// This file translates the HCL schema structs into the format-agnostic
// configuration model defined in the config package.

package hcl_adapter

import (
	"context"

	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
)

func translateParameter(p *Parameter) *config.Parameter {
	return &config.Parameter{
		Name:        p.Name,
		Description: p.Description,
		Default:     p.Default,
		Env:         p.Env,
	}
}

// translateTarget converts the HCL-specific target schema into the agnostic model.
func translateTarget(ctx context.Context, t *Target, src []byte) *config.Target {
	logger := ctxlog.FromContext(ctx).With("target", t.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL target to internal config model.")

	out := &config.Target{
		Name:                t.Name,
		Description:         t.Description,
		DependsOn:           t.DependsOn,
		Before:              t.Before,
		After:               t.After,
		TriggeredBy:         t.TriggeredBy,
		WhenSkipped:         t.WhenSkipped,
		ProceedAfterFailure: t.ProceedAfterFailure,
		Requires:            splitConditions(ctx, t.Requires, "requires", src),
		OnlyWhen:            splitConditions(ctx, t.OnlyWhen, "only_when", src),
		Produces:            t.Produces,
		Consumes:            t.Consumes,
	}

	if t.Partition != nil {
		p := &config.Partition{Count: t.Partition.Count, ItemsGlob: t.Partition.ItemsGlob}
		if isExprDefined(ctx, t.Partition.Items, "items") {
			p.Items = t.Partition.Items
		}
		out.Partition = p
	}

	for _, a := range t.Actions {
		out.Actions = append(out.Actions, &config.Action{Type: a.Type, Body: a.Body})
	}
	return out
}
