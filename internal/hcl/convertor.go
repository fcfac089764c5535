package hcl

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL-specific implementation of the config.Converter
// interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// ctyValueType lets the decoder spot fields that want the raw cty.Value.
var ctyValueType = reflect.TypeOf(cty.Value{})

// DecodeArguments evaluates each argument expression against evalCtx and
// populates the target struct using reflection. Fields are matched by their
// `flow` tag; a field without the ",optional" flag must be present in the
// arguments. Fields of type cty.Value receive the evaluated value untouched,
// which lets an action accept arbitrarily-shaped data.
func (c *Converter) DecodeArguments(
	ctx context.Context,
	inputStruct any,
	args map[string]hcl.Expression,
	evalCtx *hcl.EvalContext,
) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting argument decoding.")

	structVal := reflect.ValueOf(inputStruct)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("inputStruct must be a non-nil pointer")
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		tag := field.Tag.Get("flow")
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		lookupName := parts[0]
		optional := len(parts) > 1 && parts[1] == "optional"

		argExpr, argProvided := args[lookupName]
		if !argProvided {
			if optional {
				continue
			}
			return fmt.Errorf("missing required argument %q", lookupName)
		}

		val, diags := argExpr.Value(evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("failed to evaluate argument %q: %w", lookupName, diags)
		}

		if field.Type == ctyValueType {
			fieldVal.Set(reflect.ValueOf(val))
			continue
		}
		if err := c.decode(ctx, val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode argument %q: %w", lookupName, err)
		}
	}
	logger.Debug("Finished argument decoding successfully.")
	return nil
}

// decode handles the conversion and decoding of a cty.Value into a Go pointer.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)
	if valPtr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", goVal)
	}

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", valPtr.Elem().Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(convertedVal, goVal)
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
// Actions typically return map[string]any, whose concrete shape only exists
// at runtime, so containers are converted element by element rather than
// through a single implied type.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	switch typed := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return typed, nil
	case map[string]any:
		if len(typed) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(typed))
		for k, elem := range typed {
			cv, err := c.ToCtyValue(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(typed) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(typed))
		for i, elem := range typed {
			cv, err := c.ToCtyValue(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = cv
		}
		return cty.TupleVal(elems), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type for %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}
