package codec

import (
	"fmt"
	"reflect"

	"github.com/artpar/wildgate/core/schema"
)

// BindParams stores coerced parameter values into the fields of target that
// declared them. values is keyed by schema.Param.Key; absent keys leave the
// field untouched. Values are int64, float64, bool or string.
func BindParams(target any, params []schema.Param, values map[string]any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("codec: bind target must be a non-nil pointer, got %T", target)
	}
	root := rv.Elem()
	if root.Kind() != reflect.Struct {
		if len(params) == 0 {
			return nil
		}
		return fmt.Errorf("codec: bind target must point to a struct, got %T", target)
	}

	for _, p := range params {
		val, ok := values[p.Key()]
		if !ok || val == nil {
			continue
		}
		field, err := fieldByIndex(root, p.Index)
		if err != nil {
			return fmt.Errorf("codec: bind %s: %w", p.Key(), err)
		}
		if err := assign(field, val); err != nil {
			return &DecodeError{Offset: -1, Path: p.Key(), Msg: err.Error(), Err: err}
		}
	}
	return nil
}

// fieldByIndex is reflect.Value.FieldByIndex with allocation of nil embedded pointers.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					if !v.CanSet() {
						return reflect.Value{}, fmt.Errorf("cannot allocate embedded %s", v.Type())
					}
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, nil
}

func assign(field reflect.Value, val any) error {
	if field.Kind() == reflect.Pointer {
		ptr := reflect.New(field.Type().Elem())
		if err := assign(ptr.Elem(), val); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	src := reflect.ValueOf(val)
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := val.(int64)
		if !ok {
			return fmt.Errorf("expected an integer, got %T", val)
		}
		if field.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, field.Type())
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := val.(int64)
		if !ok || n < 0 {
			return fmt.Errorf("expected a non-negative integer, got %v", val)
		}
		if field.OverflowUint(uint64(n)) {
			return fmt.Errorf("%d overflows %s", n, field.Type())
		}
		field.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		switch f := val.(type) {
		case float64:
			field.SetFloat(f)
		case int64:
			field.SetFloat(float64(f))
		default:
			return fmt.Errorf("expected a number, got %T", val)
		}
	default:
		if src.Kind() != field.Kind() {
			return fmt.Errorf("cannot assign %T to %s", val, field.Type())
		}
		field.Set(src.Convert(field.Type()))
	}
	return nil
}
