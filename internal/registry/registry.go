package registry

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vk/flowgridgo/internal/proxy"
)

// Module is the interface that all core modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Services bundles the shared infrastructure handed to every action
// invocation. Pool is nil when the grid declares no proxy_pool block;
// Strategy is the pool's grid-level rotation strategy, which individual
// tasks may override.
type Services struct {
	Pool     *proxy.Pool
	Strategy proxy.Strategy
	Client   *http.Client
}

// RegisteredAction holds the compiled Go parts of a single action type.
type RegisteredAction struct {
	// NewInput returns a pointer to a fresh argument struct for the decoder
	// to fill, or is nil when the action takes no arguments.
	NewInput func() any

	// Fn is the handler. Its signature must be
	// func(context.Context, *Services, *T) (any, error), where *T matches
	// NewInput's return type; the input parameter is dropped when NewInput
	// is nil.
	Fn any
}

// Registry holds all the registered actions for a single application
// instance.
type Registry struct {
	actions map[string]*RegisteredAction
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{actions: make(map[string]*RegisteredAction)}
}

// RegisterAction registers a Go handler for an action type.
func (r *Registry) RegisterAction(name string, action *RegisteredAction) {
	if _, exists := r.actions[name]; exists {
		panic(fmt.Sprintf("action with name '%s' already registered", name))
	}
	slog.Debug("Registering action.", "name", name)
	r.actions[name] = action
}

// Action looks up a registered action by type name.
func (r *Registry) Action(name string) (*RegisteredAction, bool) {
	a, ok := r.actions[name]
	return a, ok
}
