package delay

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the delay action.
type Input struct {
	Duration string `flow:"duration"`
}

// OnRunDelay pauses the task for the given duration, honoring cancellation
// and the task's timeout.
func OnRunDelay(ctx context.Context, svc *registry.Services, input *Input) (any, error) {
	d, err := time.ParseDuration(input.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", input.Duration, err)
	}

	ctxlog.FromContext(ctx).Debug("Delaying.", "duration", d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return map[string]any{"slept": d.String()}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("delay", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunDelay,
	})
}
