package workflow

import (
	"context"
	"time"
)

// Action is the opaque unit of work a task executes. It receives the shared
// workflow Context, through which it can read the results of upstream tasks.
// Typed task options are bound by the embedding layer (each action declares
// its own input struct there); by the time an Action reaches the scheduler it
// is a plain closure.
type Action func(ctx context.Context, wf *Context) (any, error)

// Task is a named unit of work with declared dependencies, a retry budget and
// a per-attempt timeout. A Task is owned by the Graph it is registered in and
// is not mutated after registration, except by re-registering under the same
// name.
type Task struct {
	// Name uniquely identifies the task within a graph.
	Name string

	// Action is the work to perform. Required.
	Action Action

	// DependsOn lists the names of tasks that must complete before this one
	// runs. Names that are never registered are treated as "never completed",
	// which causes this task to be skipped.
	DependsOn []string

	// RetryCount is the number of additional attempts after the first
	// failure. Zero means a single attempt.
	RetryCount int

	// Timeout bounds each individual attempt. Zero means the graph default.
	Timeout time.Duration

	// SkipOnFailure declares that a failure of this task should not skip its
	// dependents. It has effect only when the graph was built with
	// WithSkipOnFailureHonored; otherwise it is recorded metadata.
	SkipOnFailure bool
}

// Depends appends dependency names and returns the task for chaining.
func (t *Task) Depends(names ...string) *Task {
	t.DependsOn = append(t.DependsOn, names...)
	return t
}
