package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/proxy"
	"github.com/vk/flowgridgo/internal/schema"
)

// translateWorkflow converts the HCL-specific workflow schema into the
// agnostic model.
func (l *Loader) translateWorkflow(w *schema.Workflow) (*config.Workflow, error) {
	out := &config.Workflow{Name: w.Name}
	if w.Workers != nil {
		if *w.Workers < 0 {
			return nil, fmt.Errorf("workflow %q: workers must not be negative", w.Name)
		}
		out.Workers = *w.Workers
	}
	if w.HonorSkipOnFailure != nil {
		out.HonorSkipOnFailure = *w.HonorSkipOnFailure
	}

	for _, t := range w.Tasks {
		task, err := l.translateTask(t)
		if err != nil {
			return nil, fmt.Errorf("workflow %q: %w", w.Name, err)
		}
		out.Tasks = append(out.Tasks, task)
	}
	return out, nil
}

// translateTask converts a single task block, parsing its duration string.
func (l *Loader) translateTask(t *schema.Task) (*config.Task, error) {
	out := &config.Task{
		ActionType: t.ActionType,
		Name:       t.Name,
		Arguments:  l.extractBodyAttributes(t.Arguments),
		DependsOn:  t.DependsOn,
	}
	if t.RetryCount != nil {
		if *t.RetryCount < 0 {
			return nil, fmt.Errorf("task %q: retry_count must not be negative", t.Name)
		}
		out.RetryCount = *t.RetryCount
	}
	if t.Timeout != nil {
		d, err := time.ParseDuration(*t.Timeout)
		if err != nil {
			return nil, fmt.Errorf("task %q: invalid timeout: %w", t.Name, err)
		}
		out.Timeout = d
	}
	if t.SkipOnFailure != nil {
		out.SkipOnFailure = *t.SkipOnFailure
	}
	return out, nil
}

// translateProxyPool converts the proxy_pool block. The strategy name is
// validated here so a typo fails at load time rather than mid-run.
func (l *Loader) translateProxyPool(p *schema.ProxyPool) (*config.ProxyPool, error) {
	out := &config.ProxyPool{Endpoints: p.Endpoints}
	if len(p.Endpoints) == 0 {
		return nil, fmt.Errorf("proxy_pool: endpoints must not be empty")
	}
	if p.CheckURL != nil {
		out.CheckURL = *p.CheckURL
	}
	if p.CheckInterval != nil {
		d, err := time.ParseDuration(*p.CheckInterval)
		if err != nil {
			return nil, fmt.Errorf("proxy_pool: invalid check_interval: %w", err)
		}
		out.CheckInterval = d
	}
	if p.MaxFailures != nil {
		if *p.MaxFailures < 1 {
			return nil, fmt.Errorf("proxy_pool: max_failures must be at least 1")
		}
		out.MaxFailures = *p.MaxFailures
	}
	if p.ProbeTimeout != nil {
		d, err := time.ParseDuration(*p.ProbeTimeout)
		if err != nil {
			return nil, fmt.Errorf("proxy_pool: invalid probe_timeout: %w", err)
		}
		out.ProbeTimeout = d
	}
	if p.Strategy != nil {
		strategy, err := proxy.ParseStrategy(*p.Strategy)
		if err != nil {
			return nil, fmt.Errorf("proxy_pool: %w", err)
		}
		out.Strategy = string(strategy)
	}
	return out, nil
}

// extractBodyAttributes converts an arguments block body into a map of raw
// expressions for later, per-task evaluation.
func (l *Loader) extractBodyAttributes(block *schema.TaskArgs) map[string]hcl.Expression {
	if block == nil || block.Body == nil {
		return nil
	}
	attrs, _ := block.Body.JustAttributes()
	if attrs == nil {
		return nil
	}
	exprMap := make(map[string]hcl.Expression)
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap
}
