package hcl_adapter

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder often populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		logger.Debug("Expression is nil, considering it undefined.", "attribute", attrName)
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	logger.Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)

	return isDefined
}

// splitConditions turns `attr = [a, b]` into one condition per element. An
// expression that is not a static list becomes a single condition.
func splitConditions(ctx context.Context, expr hcl.Expression, attrName string, src []byte) []config.Condition {
	if !isExprDefined(ctx, expr, attrName) {
		return nil
	}

	exprs, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		exprs = []hcl.Expression{expr}
	}

	conds := make([]config.Condition, 0, len(exprs))
	for _, e := range exprs {
		conds = append(conds, config.Condition{Expr: e, Source: sourceText(e, src)})
	}
	return conds
}

// sourceText returns the expression as written, collapsed to one line.
func sourceText(expr hcl.Expression, src []byte) string {
	rng := expr.Range()
	if src == nil || !rng.CanSliceBytes(src) {
		return rng.String()
	}
	return strings.Join(strings.Fields(string(rng.SliceBytes(src))), " ")
}
