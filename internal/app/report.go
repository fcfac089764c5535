package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/vk/flowgridgo/internal/workflow"
)

// renderReport writes the human-readable run summary to the app's output.
func (a *App) renderReport(res *workflow.Result) {
	bold := color.New(color.Bold)

	fmt.Fprintln(a.outW)
	bold.Fprintf(a.outW, "Workflow %q", res.WorkflowName)
	fmt.Fprintf(a.outW, "  run_id=%s  duration=%s\n", res.RunID, res.TotalDuration.Round(0))

	for _, tr := range res.TaskResults {
		statusColor(tr.Status).Fprintf(a.outW, "  %-10s", tr.Status)
		fmt.Fprintf(a.outW, " %s (%s)", tr.TaskName, tr.Duration.Round(0))
		if tr.Error != "" {
			fmt.Fprintf(a.outW, "  %s", tr.Error)
		}
		fmt.Fprintln(a.outW)
	}

	bold.Fprintf(a.outW, "Totals:")
	fmt.Fprintf(a.outW, " %d tasks, %d completed, %d failed, %d skipped",
		res.TotalTasks, res.Completed, res.Failed, res.Skipped)
	if res.Cancelled > 0 {
		fmt.Fprintf(a.outW, ", %d cancelled", res.Cancelled)
	}
	fmt.Fprintln(a.outW)
}

func statusColor(s workflow.Status) *color.Color {
	switch s {
	case workflow.StatusCompleted:
		return color.New(color.FgGreen)
	case workflow.StatusFailed:
		return color.New(color.FgRed)
	case workflow.StatusSkipped:
		return color.New(color.FgYellow)
	case workflow.StatusCancelled:
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgWhite)
	}
}
