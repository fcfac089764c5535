package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration: the workflow definition and, optionally, the
// proxy pool backing it.
type Model struct {
	Workflow  *Workflow
	ProxyPool *ProxyPool
}

// Workflow represents the user's task graph definition.
type Workflow struct {
	Name string

	// Workers caps how many tasks may run at once. Zero or one means
	// sequential execution in dependency order.
	Workers int

	// HonorSkipOnFailure lets a failed task marked skip_on_failure be
	// treated as satisfied by its dependents.
	HonorSkipOnFailure bool

	Tasks []*Task
}

// Task is the format-agnostic representation of a `task` block. Arguments
// stay as unevaluated expressions so they can reference the results of
// earlier tasks at execution time.
type Task struct {
	ActionType    string
	Name          string
	Arguments     map[string]hcl.Expression
	DependsOn     []string
	RetryCount    int
	Timeout       time.Duration
	SkipOnFailure bool
}

// ProxyPool is the format-agnostic representation of a `proxy_pool` block.
// Zero values mean "use the pool's default"; the loader only fills in what
// the user wrote.
type ProxyPool struct {
	Endpoints     []string
	CheckURL      string
	CheckInterval time.Duration
	MaxFailures   int
	ProbeTimeout  time.Duration
	Strategy      string
}
