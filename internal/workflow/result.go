package workflow

import "time"

// TaskResult is the settled outcome of a single task within one run. Exactly
// one TaskResult exists per registered task per Execute call.
type TaskResult struct {
	TaskName  string        `json:"task_name"`
	Status    Status        `json:"status"`
	Duration  time.Duration `json:"duration"`
	Data      any           `json:"result_data,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Result is the aggregate report of one workflow run. It is produced once at
// the end of Execute and not mutated afterwards.
type Result struct {
	RunID        string        `json:"run_id"`
	WorkflowName string        `json:"workflow_name"`
	TotalTasks   int           `json:"total_tasks"`
	Completed    int           `json:"completed"`
	Failed       int           `json:"failed"`
	Skipped      int           `json:"skipped"`
	Cancelled    int           `json:"cancelled"`
	// TotalDuration is wall-clock time of the whole run, not the sum of
	// per-task durations.
	TotalDuration time.Duration `json:"total_duration"`
	TaskResults   []TaskResult  `json:"task_results"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// Succeeded reports whether the run finished with no failed or cancelled
// tasks.
func (r *Result) Succeeded() bool {
	return r.Failed == 0 && r.Cancelled == 0
}
