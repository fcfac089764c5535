package envvars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the env_vars action.
type Input struct {
	// Names restricts the result to the listed variables. Empty means all.
	Names []string `flow:"names,optional"`
}

// OnRunEnvVars exposes process environment variables to later tasks, e.g.
// for interpolating credentials into request headers.
func OnRunEnvVars(ctx context.Context, svc *registry.Services, input *Input) (any, error) {
	envMap := make(map[string]any)
	if len(input.Names) > 0 {
		for _, name := range input.Names {
			envMap[name] = os.Getenv(name)
		}
		return envMap, nil
	}

	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("env_vars", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunEnvVars,
	})
}
