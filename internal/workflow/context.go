package workflow

import "sync"

// Context is the shared mutable value store for one workflow run. Completed
// tasks merge their result into it under their own name, so downstream tasks
// can read upstream output. All access is synchronized; the scheduler is the
// only writer of task results, but actions may read and write concurrently
// when independent branches run in parallel.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext creates a Context seeded with the given initial values.
func NewContext(initial map[string]any) *Context {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Context{values: values}
}

// Get returns the value stored under key, if any.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Len returns the number of stored entries.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Snapshot returns a shallow copy of the stored values.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
