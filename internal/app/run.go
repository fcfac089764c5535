package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/proxy"
	"github.com/vk/flowgridgo/internal/retry"
)

// Run executes the loaded workflow: it starts the status server and the
// background proxy health sweeps, runs the graph to completion, and renders
// the final report. A non-nil error means the run as a whole did not
// succeed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.startStatusServer()
	defer a.closeStatusServer()

	if a.services.Pool != nil {
		a.logger.Info("🔎 Running initial proxy health check...")
		_, err := retry.Until(ctx, func(ctx context.Context) (proxy.Summary, error) {
			sum := a.services.Pool.HealthCheck(ctx)
			if sum.Healthy == 0 {
				return sum, errors.New("no healthy proxies yet")
			}
			return sum, nil
		}, 3, time.Second, 2.0)
		if err != nil {
			a.logger.Warn("No healthy proxies after initial checks; proxied tasks will fail until one recovers.", "error", err)
		}

		sweeper := cron.New()
		_, err = sweeper.AddFunc(fmt.Sprintf("@every %s", a.checkInterval), func() {
			a.services.Pool.HealthCheck(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule health sweeps: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
		a.logger.Debug("Background health sweeps scheduled.", "interval", a.checkInterval)
	}

	graph := a.buildGraph()
	a.logger.Info("🚀 Starting workflow execution.", "workflow", graph.Name(), "tasks", graph.Len())

	result, err := graph.Execute(ctx, nil)
	if err != nil {
		return fmt.Errorf("execution aborted: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "run_id", result.RunID)

	a.renderReport(result)

	if result.Cancelled > 0 {
		return fmt.Errorf("workflow '%s' was cancelled with %d task(s) unfinished", result.WorkflowName, result.Cancelled)
	}
	if !result.Succeeded() {
		return fmt.Errorf("workflow '%s' finished with %d failed task(s)", result.WorkflowName, result.Failed)
	}
	return nil
}
