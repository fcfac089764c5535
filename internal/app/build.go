package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// buildGraph translates the loaded workflow model into an executable task
// graph. Each task's action closure decodes its arguments lazily, at run
// time, so expressions can reference the results of dependencies.
func (a *App) buildGraph() *workflow.Graph {
	wf := a.model.Workflow

	var opts []workflow.Option
	workers := wf.Workers
	if a.config.Workers > 0 {
		workers = a.config.Workers
	}
	if workers > 0 {
		opts = append(opts, workflow.WithWorkers(workers))
	}
	if wf.HonorSkipOnFailure {
		opts = append(opts, workflow.WithSkipOnFailureHonored())
	}

	graph := workflow.New(wf.Name, opts...)
	for _, taskCfg := range wf.Tasks {
		graph.AddTask(&workflow.Task{
			Name:          taskCfg.Name,
			Action:        a.bindAction(taskCfg.ActionType, taskCfg.Arguments),
			DependsOn:     taskCfg.DependsOn,
			RetryCount:    taskCfg.RetryCount,
			Timeout:       taskCfg.Timeout,
			SkipOnFailure: taskCfg.SkipOnFailure,
		})
	}
	return graph
}

// bindAction closes over one task's action type and raw arguments.
func (a *App) bindAction(actionType string, args map[string]hcl.Expression) workflow.Action {
	return func(ctx context.Context, wfCtx *workflow.Context) (any, error) {
		action, ok := a.registry.Action(actionType)
		if !ok {
			return nil, fmt.Errorf("unknown action type '%s'", actionType)
		}

		var input any
		if action.NewInput != nil {
			input = action.NewInput()
			evalCtx := a.evalContext(ctx, wfCtx)
			if err := a.converter.DecodeArguments(ctx, input, args, evalCtx); err != nil {
				return nil, err
			}
		}
		return a.registry.Invoke(ctx, actionType, a.services, input)
	}
}

// evalContext exposes completed task results to argument expressions under
// the `task` variable, keyed by task name. Results the converter cannot
// express in cty are left out rather than failing the whole task.
func (a *App) evalContext(ctx context.Context, wfCtx *workflow.Context) *hcl.EvalContext {
	logger := ctxlog.FromContext(ctx)

	taskVals := make(map[string]cty.Value)
	for name, v := range wfCtx.Snapshot() {
		cv, err := a.converter.ToCtyValue(v)
		if err != nil {
			logger.Debug("Skipping unconvertible task result.", "task", name, "error", err)
			continue
		}
		taskVals[name] = cv
	}

	vars := make(map[string]cty.Value)
	if len(taskVals) > 0 {
		vars["task"] = cty.ObjectVal(taskVals)
	}
	return &hcl.EvalContext{Variables: vars}
}
