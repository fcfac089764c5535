package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
)

var (
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	servicesType = reflect.TypeOf((*Services)(nil))
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	anyType      = reflect.TypeOf((*any)(nil)).Elem()
)

// ValidateModel performs a strict pre-flight check between the loaded
// workflow and the compiled actions: every task's action type must be
// registered and every registered handler it uses must have a well-formed
// signature. A failure here aborts the run before any task starts.
func (r *Registry) ValidateModel(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	checked := make(map[string]struct{})
	for _, task := range model.Workflow.Tasks {
		action, ok := r.actions[task.ActionType]
		if !ok {
			errs = append(errs, fmt.Sprintf("task '%s': unknown action type '%s'", task.Name, task.ActionType))
			continue
		}
		if _, done := checked[task.ActionType]; done {
			continue
		}
		checked[task.ActionType] = struct{}{}

		if err := validateHandler(task.ActionType, action); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated against workflow.", "action_types", len(checked))
	return nil
}

// validateHandler checks one handler's shape via reflection.
func validateHandler(actionType string, action *RegisteredAction) error {
	fnType := reflect.TypeOf(action.Fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("action '%s': Fn is not a function", actionType)
	}

	wantIn := 2
	if action.NewInput != nil {
		wantIn = 3
	}
	if fnType.NumIn() != wantIn {
		return fmt.Errorf("action '%s': handler takes %d parameters, want %d", actionType, fnType.NumIn(), wantIn)
	}
	if !fnType.In(0).Implements(contextType) {
		return fmt.Errorf("action '%s': first parameter must be context.Context", actionType)
	}
	if fnType.In(1) != servicesType {
		return fmt.Errorf("action '%s': second parameter must be *registry.Services", actionType)
	}
	if action.NewInput != nil {
		inputType := reflect.TypeOf(action.NewInput())
		if inputType == nil || inputType.Kind() != reflect.Ptr {
			return fmt.Errorf("action '%s': NewInput must return a pointer to a struct", actionType)
		}
		if fnType.In(2) != inputType {
			return fmt.Errorf("action '%s': third parameter is %s, but NewInput returns %s", actionType, fnType.In(2), inputType)
		}
	}

	if fnType.NumOut() != 2 || fnType.Out(0) != anyType || fnType.Out(1) != errorType {
		return fmt.Errorf("action '%s': handler must return (any, error)", actionType)
	}
	return nil
}
