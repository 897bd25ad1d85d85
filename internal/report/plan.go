package report

import (
	"fmt"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/vk/buildgrid/internal/plan"
	"github.com/vk/buildgrid/internal/target"
)

// RenderPlan shows the execution order and skip decisions of p.
func RenderPlan(p *plan.Plan) string {
	if len(p.Entries) == 0 {
		return "Empty plan.\n"
	}
	rows := make([][]string, 0, len(p.Entries))
	for i, e := range p.Entries {
		action := "run"
		if e.Skip {
			action = "skip"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Name(),
			action,
			orDash(strings.Join(e.Waits, ", ")),
			orDash(strings.Join(e.Target.Produces, ", ")),
			orDash(strings.Join(e.Target.Consumes, ", ")),
			orDash(e.SkipReason),
		})
	}
	tabulate := gotabulate.Create(rows)
	tabulate.SetHeaders([]string{"#", "Target", "Action", "Waits for", "Produces", "Consumes", "Reason"})
	tabulate.SetAlign("left")
	return tabulate.Render("grid") + fmt.Sprintf("\n%d of %d targets will run.\n", p.Runnable(), len(p.Entries))
}

// RenderTargets lists definitions in declaration order, marking def as the
// default target.
func RenderTargets(defs []*target.Definition, def string) string {
	if len(defs) == 0 {
		return "No targets defined.\n"
	}
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		name := d.Name
		if name == def {
			name += " (default)"
		}
		rows = append(rows, []string{
			name,
			orDash(d.Description),
			orDash(strings.Join(d.DependsOn, ", ")),
			orDash(strings.Join(d.Produces, ", ")),
			orDash(strings.Join(d.Consumes, ", ")),
		})
	}
	tabulate := gotabulate.Create(rows)
	tabulate.SetHeaders([]string{"Target", "Description", "Depends on", "Produces", "Consumes"})
	tabulate.SetAlign("left")
	return tabulate.Render("grid")
}
