package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// TaskArgs represents the content of the 'arguments' block within a task.
type TaskArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Task represents a `task` block from a user's grid file. It is a runnable
// instance of a registered action.
type Task struct {
	ActionType    string    `hcl:"action_type,label"`
	Name          string    `hcl:"task_name,label"`
	Arguments     *TaskArgs `hcl:"arguments,block"`
	DependsOn     []string  `hcl:"depends_on,optional"`
	RetryCount    *int      `hcl:"retry_count,optional"`
	Timeout       *string   `hcl:"timeout,optional"`
	SkipOnFailure *bool     `hcl:"skip_on_failure,optional"`
}

// Workflow represents a `workflow` block: a named graph of tasks plus the
// knobs that govern how the graph is run.
type Workflow struct {
	Name               string  `hcl:"name,label"`
	Workers            *int    `hcl:"workers,optional"`
	HonorSkipOnFailure *bool   `hcl:"honor_skip_on_failure,optional"`
	Tasks              []*Task `hcl:"task,block"`
}

// ProxyPool represents the optional `proxy_pool` block. Durations are plain
// strings here ("5m", "10s") and parsed during translation.
type ProxyPool struct {
	Endpoints     []string `hcl:"endpoints"`
	CheckURL      *string  `hcl:"check_url,optional"`
	CheckInterval *string  `hcl:"check_interval,optional"`
	MaxFailures   *int     `hcl:"max_failures,optional"`
	ProbeTimeout  *string  `hcl:"probe_timeout,optional"`
	Strategy      *string  `hcl:"strategy,optional"`
}

// GridConfig represents the top-level structure of a user's grid file.
type GridConfig struct {
	Workflows []*Workflow `hcl:"workflow,block"`
	ProxyPool *ProxyPool  `hcl:"proxy_pool,block"`
	Body      hcl.Body    `hcl:",remain"`
}
