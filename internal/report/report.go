// Package report turns execution outcomes into an exit code and a
// human-readable summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/bndr/gotabulate"
	"github.com/vk/buildgrid/internal/plan"
)

// Process exit codes.
const (
	ExitOK = 0
	// ExitFailed means at least one target failed.
	ExitFailed = 1
	// ExitConfigError is used for configuration and resolution errors that
	// stop the run before any target starts.
	ExitConfigError = 2
)

var headers = []string{"Target", "Status", "Duration", "Partitions", "Reason"}

// ExitCode returns ExitOK unless an outcome failed.
func ExitCode(outcomes []plan.Outcome) int {
	for _, o := range outcomes {
		if o.Status == plan.Failed {
			return ExitFailed
		}
	}
	return ExitOK
}

// Summarize renders outcomes in the order given, which callers keep equal to
// plan order, followed by the error of every failed target.
func Summarize(outcomes []plan.Outcome) (int, string) {
	code := ExitCode(outcomes)
	if len(outcomes) == 0 {
		return code, "No targets executed.\n"
	}

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []string{
			o.Name,
			o.Status.String(),
			formatDuration(o),
			formatPartitions(o),
			orDash(o.Reason),
		})
	}

	tabulate := gotabulate.Create(rows)
	tabulate.SetHeaders(headers)
	tabulate.SetAlign("left")

	var b strings.Builder
	b.WriteString(tabulate.Render("grid"))

	var failed []plan.Outcome
	for _, o := range outcomes {
		if o.Status == plan.Failed {
			failed = append(failed, o)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\nFailures:\n")
		for _, o := range failed {
			fmt.Fprintf(&b, "  %s: %v\n", o.Name, o.Err)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", tally(outcomes))
	return code, b.String()
}

func tally(outcomes []plan.Outcome) string {
	counts := map[plan.Status]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}
	verdict := "Build succeeded"
	if counts[plan.Failed] > 0 {
		verdict = "Build failed"
	}
	return fmt.Sprintf("%s: %d succeeded, %d failed, %d skipped.",
		verdict, counts[plan.Succeeded], counts[plan.Failed], counts[plan.Skipped])
}

func formatDuration(o plan.Outcome) string {
	if o.Status == plan.Skipped || (o.Duration == 0 && o.Status != plan.Succeeded) {
		return "-"
	}
	return o.Duration.Round(time.Millisecond).String()
}

func formatPartitions(o plan.Outcome) string {
	if len(o.Partitions) == 0 {
		return "-"
	}
	ok := 0
	for _, p := range o.Partitions {
		if p.Status == plan.Succeeded {
			ok++
		}
	}
	return fmt.Sprintf("%d/%d", ok, len(o.Partitions))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
