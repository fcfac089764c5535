package workflow

import (
	"fmt"
	"strings"
	"time"
)

// CycleError is returned by Execute when the dependency graph contains a
// cycle. No task runs in that case, since no valid order exists.
type CycleError struct {
	// Path is the chain of task names along which the cycle was found,
	// ending at the task that was revisited.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Graph holds the registered tasks of one workflow. It is assembled by the
// caller, then executed as a whole; it is not safe for concurrent mutation
// during Execute.
type Graph struct {
	name  string
	tasks map[string]*Task
	// order preserves registration order, which makes the resolved execution
	// order deterministic. Overwriting a task keeps its original position.
	order []string

	workers           int
	defaultTimeout    time.Duration
	retryDelay        time.Duration
	honorSkipOnFailed bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithWorkers sets the number of concurrent workers for Execute. Values
// below 2 select strictly sequential execution in resolved order.
func WithWorkers(n int) Option {
	return func(g *Graph) { g.workers = n }
}

// WithDefaultTimeout sets the per-attempt timeout used by tasks that do not
// declare their own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(g *Graph) { g.defaultTimeout = d }
}

// WithRetryDelay sets the fixed pause between failed attempts of a task.
func WithRetryDelay(d time.Duration) Option {
	return func(g *Graph) { g.retryDelay = d }
}

// WithSkipOnFailureHonored makes a failed dependency that declared
// SkipOnFailure count as satisfied for its dependents. Off by default.
func WithSkipOnFailureHonored() Option {
	return func(g *Graph) { g.honorSkipOnFailed = true }
}

// New creates an empty named graph.
func New(name string, opts ...Option) *Graph {
	g := &Graph{
		name:           name,
		tasks:          make(map[string]*Task),
		workers:        1,
		defaultTimeout: 60 * time.Second,
		retryDelay:     time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the workflow name.
func (g *Graph) Name() string { return g.name }

// Len returns the number of registered tasks.
func (g *Graph) Len() int { return len(g.tasks) }

// AddTask registers a task by name and returns the graph for chaining.
// Registering a name twice overwrites the earlier task but keeps its
// position in the registration order. No cycle check happens here; cycles
// are reported by Execute before any task runs.
func (g *Graph) AddTask(t *Task) *Graph {
	if _, exists := g.tasks[t.Name]; !exists {
		g.order = append(g.order, t.Name)
	}
	g.tasks[t.Name] = t
	return g
}

// visit markers for resolveOrder.
const (
	unvisited = iota
	inProgress
	done
)

// resolveOrder computes a depth-first post-order over registration order,
// visiting each task's dependencies before the task itself. Dependency names
// that were never registered are silently ignored here; the dependent is
// later skipped because the missing name never completes. A node revisited
// while still in progress means a cycle, which is fatal.
func (g *Graph) resolveOrder() ([]string, error) {
	marks := make(map[string]int, len(g.tasks))
	order := make([]string, 0, len(g.tasks))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch marks[name] {
		case done:
			return nil
		case inProgress:
			return &CycleError{Path: append(path, name)}
		}
		marks[name] = inProgress
		task := g.tasks[name]
		for _, dep := range task.DependsOn {
			if _, ok := g.tasks[dep]; !ok {
				continue
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		marks[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range g.order {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
