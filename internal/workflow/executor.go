package workflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/flowgridgo/internal/ctxlog"
)

// Execute runs the full workflow to completion and returns its Result. It
// never returns an error for individual task failures; those are captured as
// failed TaskResults. The only pre-flight error is a dependency cycle.
//
// Cancellation of ctx is honored at task boundaries: tasks that have not
// started yet are recorded cancelled, and the Result is still produced.
func (g *Graph) Execute(ctx context.Context, initial map[string]any) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("workflow", g.name)

	order, err := g.resolveOrder()
	if err != nil {
		return nil, err
	}

	wfCtx := NewContext(initial)
	results := newResultSet(len(order))
	startedAt := time.Now().UTC()
	start := time.Now()

	logger.Info("Starting workflow.", "tasks", len(order), "workers", g.workers)
	if g.workers > 1 {
		g.runConcurrent(ctx, order, wfCtx, results)
	} else {
		g.runSequential(ctx, order, wfCtx, results)
	}

	res := &Result{
		RunID:         uuid.NewString(),
		WorkflowName:  g.name,
		TotalTasks:    len(order),
		TotalDuration: time.Since(start),
		StartedAt:     startedAt,
		FinishedAt:    time.Now().UTC(),
	}
	for _, name := range order {
		tr, _ := results.get(name)
		res.TaskResults = append(res.TaskResults, tr)
		switch tr.Status {
		case StatusCompleted:
			res.Completed++
		case StatusFailed:
			res.Failed++
		case StatusSkipped:
			res.Skipped++
		case StatusCancelled:
			res.Cancelled++
		}
	}
	logger.Info("Workflow finished.",
		"completed", res.Completed, "failed", res.Failed, "skipped", res.Skipped,
		"duration", res.TotalDuration)
	return res, nil
}

// runSequential executes tasks one at a time in resolved order.
func (g *Graph) runSequential(ctx context.Context, order []string, wfCtx *Context, results *resultSet) {
	for _, name := range order {
		task := g.tasks[name]
		if ctx.Err() != nil {
			results.put(g.cancelledResult(task, ctx.Err()))
			continue
		}
		results.put(g.settle(ctx, task, wfCtx, results))
	}
}

// runConcurrent executes mutually independent ready tasks on a bounded
// worker pool. A task becomes ready once all of its registered dependencies
// have settled; whether it then runs or is skipped is decided by the same
// dependency gate the sequential path uses. Sends to the ready channel never
// block because it is buffered to the full task count.
func (g *Graph) runConcurrent(ctx context.Context, order []string, wfCtx *Context, results *resultSet) {
	type node struct {
		task       *Task
		pending    atomic.Int32
		dependents []*node
	}

	nodes := make(map[string]*node, len(order))
	for _, name := range order {
		nodes[name] = &node{task: g.tasks[name]}
	}
	for _, n := range nodes {
		for _, dep := range n.task.DependsOn {
			parent, ok := nodes[dep]
			if !ok {
				continue // unregistered name: no edge, the gate handles it
			}
			parent.dependents = append(parent.dependents, n)
			n.pending.Add(1)
		}
	}

	ready := make(chan *node, len(order))
	for _, name := range order {
		if n := nodes[name]; n.pending.Load() == 0 {
			ready <- n
		}
	}

	var wg sync.WaitGroup
	wg.Add(len(order))
	for i := 0; i < g.workers; i++ {
		go func() {
			for n := range ready {
				if ctx.Err() != nil {
					results.put(g.cancelledResult(n.task, ctx.Err()))
				} else {
					results.put(g.settle(ctx, n.task, wfCtx, results))
				}
				for _, dep := range n.dependents {
					if dep.pending.Add(-1) == 0 {
						ready <- dep
					}
				}
				wg.Done()
			}
		}()
	}
	wg.Wait()
	close(ready)
}

// settle decides between skipping and running a task, and returns its final
// record.
func (g *Graph) settle(ctx context.Context, task *Task, wfCtx *Context, results *resultSet) TaskResult {
	if !g.dependenciesMet(task, results) {
		ctxlog.FromContext(ctx).Warn("Skipping task, dependencies not met.", "task", task.Name)
		return TaskResult{
			TaskName:  task.Name,
			Status:    StatusSkipped,
			Error:     "dependencies not met",
			Timestamp: time.Now().UTC(),
		}
	}
	result := g.runTask(ctx, task, wfCtx)
	if result.Status == StatusCompleted && result.Data != nil {
		wfCtx.Set(task.Name, result.Data)
	}
	return result
}

// dependenciesMet reports whether every declared dependency has a completed
// result. Names that were never registered never complete, so they fail the
// gate. When the graph honors SkipOnFailure, a failed dependency that set the
// flag passes the gate.
func (g *Graph) dependenciesMet(task *Task, results *resultSet) bool {
	for _, dep := range task.DependsOn {
		r, ok := results.get(dep)
		if ok && r.Status == StatusCompleted {
			continue
		}
		if g.honorSkipOnFailed && ok && r.Status == StatusFailed {
			if depTask, registered := g.tasks[dep]; registered && depTask.SkipOnFailure {
				continue
			}
		}
		return false
	}
	return true
}

// runTask runs a single task through its retry budget with a per-attempt
// timeout and returns its settled record.
func (g *Graph) runTask(ctx context.Context, task *Task, wfCtx *Context) TaskResult {
	logger := ctxlog.FromContext(ctx).With("task", task.Name)
	logger.Info("Executing task.")
	start := time.Now()

	attempts := task.RetryCount + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := g.invoke(ctx, task, wfCtx)
		if err == nil {
			logger.Info("Task completed.", "attempt", attempt, "duration", time.Since(start))
			return TaskResult{
				TaskName:  task.Name,
				Status:    StatusCompleted,
				Duration:  time.Since(start),
				Data:      data,
				Timestamp: time.Now().UTC(),
			}
		}
		lastErr = err
		logger.Error("Task attempt failed.", "attempt", attempt, "of", attempts, "error", err)

		if ctx.Err() != nil {
			return g.cancelledResult(task, ctx.Err())
		}
		if attempt < attempts {
			select {
			case <-time.After(g.retryDelay):
			case <-ctx.Done():
				return g.cancelledResult(task, ctx.Err())
			}
		}
	}

	return TaskResult{
		TaskName:  task.Name,
		Status:    StatusFailed,
		Duration:  time.Since(start),
		Error:     lastErr.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// invoke runs one attempt of the action under the task's timeout. The action
// runs in its own goroutine so a non-cooperative action cannot stall the
// scheduler past its deadline; such a goroutine may outlive the attempt.
// Panics inside an action are contained and surfaced as attempt errors.
func (g *Graph) invoke(ctx context.Context, task *Task, wfCtx *Context) (any, error) {
	timeout := task.Timeout
	if timeout <= 0 {
		timeout = g.defaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		data any
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("task %q panicked: %v", task.Name, r)}
			}
		}()
		data, err := task.Action(attemptCtx, wfCtx)
		done <- outcome{data: data, err: err}
	}()

	select {
	case o := <-done:
		return o.data, o.err
	case <-attemptCtx.Done():
		// An action that settled in the same instant wins over the deadline.
		select {
		case o := <-done:
			return o.data, o.err
		default:
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("task %q timed out after %s", task.Name, timeout)
	}
}

func (g *Graph) cancelledResult(task *Task, cause error) TaskResult {
	msg := "workflow cancelled"
	if cause != nil {
		msg = cause.Error()
	}
	return TaskResult{
		TaskName:  task.Name,
		Status:    StatusCancelled,
		Error:     msg,
		Timestamp: time.Now().UTC(),
	}
}

// resultSet is the synchronized per-run record store. Each task gets exactly
// one entry; reads happen from dependency gates on other workers.
type resultSet struct {
	mu      sync.RWMutex
	records map[string]TaskResult
}

func newResultSet(capacity int) *resultSet {
	return &resultSet{records: make(map[string]TaskResult, capacity)}
}

func (rs *resultSet) put(r TaskResult) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.records[r.TaskName] = r
}

func (rs *resultSet) get(name string) (TaskResult, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	r, ok := rs.records[name]
	return r, ok
}
