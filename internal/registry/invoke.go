package registry

import (
	"context"
	"fmt"
	"reflect"
)

// Invoke calls a registered handler with the decoded input. The input must
// be the struct pointer produced by the action's NewInput, or nil when the
// action takes no arguments. Signature errors are caught beforehand by
// ValidateModel, so Invoke assumes a well-formed handler.
func (r *Registry) Invoke(ctx context.Context, actionType string, svc *Services, input any) (any, error) {
	action, ok := r.actions[actionType]
	if !ok {
		return nil, fmt.Errorf("unknown action type '%s'", actionType)
	}

	args := []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(svc)}
	if action.NewInput != nil {
		args = append(args, reflect.ValueOf(input))
	}

	results := reflect.ValueOf(action.Fn).Call(args)
	var err error
	if e := results[1].Interface(); e != nil {
		err = e.(error)
	}
	return results[0].Interface(), err
}
