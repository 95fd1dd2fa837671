package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
)

// ToObject converts plain Go data (maps with string keys, slices, strings,
// numbers, booleans and nil) to Risor objects. Values that are already Risor
// objects pass through unchanged.
func ToObject(v any) (object.Object, error) {
	switch v := v.(type) {
	case nil:
		return object.Nil, nil
	case object.Object:
		return v, nil
	case string:
		return object.NewString(v), nil
	case bool:
		return object.NewBool(v), nil
	case int:
		return object.NewInt(int64(v)), nil
	case int64:
		return object.NewInt(v), nil
	case float64:
		return object.NewFloat(v), nil
	case []string:
		items := make([]object.Object, len(v))
		for i, s := range v {
			items[i] = object.NewString(s)
		}
		return object.NewList(items), nil
	case []any:
		items := make([]object.Object, len(v))
		for i, el := range v {
			obj, err := ToObject(el)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = obj
		}
		return object.NewList(items), nil
	case []map[string]any:
		items := make([]object.Object, len(v))
		for i, el := range v {
			obj, err := ToObject(el)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = obj
		}
		return object.NewList(items), nil
	case map[string]string:
		m := make(map[string]object.Object, len(v))
		for k, s := range v {
			m[k] = object.NewString(s)
		}
		return object.NewMap(m), nil
	case map[string][]string:
		m := make(map[string]object.Object, len(v))
		for k, list := range v {
			obj, _ := ToObject(list)
			m[k] = obj
		}
		return object.NewMap(m), nil
	case map[string]any:
		m := make(map[string]object.Object, len(v))
		for k, el := range v {
			obj, err := ToObject(el)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = obj
		}
		return object.NewMap(m), nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

// StringPredicate wraps fn as a one-argument host function returning a bool.
func StringPredicate(name string, fn func(string) bool) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		s, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("%s: expected string, got %s", name, args[0].Type())
		}
		return object.NewBool(fn(s.Value()))
	})
}
