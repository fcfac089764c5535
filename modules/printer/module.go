package printer

import (
	"context"
	"fmt"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print action. Value accepts any
// expression, including references to earlier task results.
type Input struct {
	Value cty.Value `flow:"value"`
}

// OnRunPrint renders the evaluated value as JSON to stdout.
func OnRunPrint(ctx context.Context, svc *registry.Services, input *Input) (any, error) {
	logger := ctxlog.FromContext(ctx)

	if input.Value.IsNull() {
		fmt.Println("      (null)")
		return nil, nil
	}

	rendered, err := ctyjson.Marshal(input.Value, input.Value.Type())
	if err != nil {
		return nil, fmt.Errorf("failed to render value: %w", err)
	}
	logger.Debug("Printing value.", "bytes", len(rendered))
	fmt.Printf("      %s\n", rendered)

	return map[string]any{"printed": string(rendered)}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("print", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunPrint,
	})
}
