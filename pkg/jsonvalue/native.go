package jsonvalue

import (
	"fmt"
	"reflect"
	"sort"
)

// ToNative converts v into the generic form produced by encoding/json
// (map[string]any, []any, float64, string, bool, nil). Member order is lost.
func ToNative(v Value) any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.n
	case String:
		return v.s
	case Array:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = ToNative(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = ToNative(m.Value)
		}
		return out
	default:
		return nil
	}
}

// FromNative converts generic Go data back into a Value. Map keys are sorted
// because Go maps carry no order. Integer and float types become numbers.
func FromNative(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case float32:
		return NumberValue(float64(t)), nil
	case int:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case int32:
		return NumberValue(float64(t)), nil
	case uint64:
		return NumberValue(float64(t)), nil
	case uint32:
		return NumberValue(float64(t)), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			v, err := FromNative(e)
			if err != nil {
				return Value{}, fmt.Errorf("element [%d]: %w", i, err)
			}
			elems[i] = v
		}
		return Value{kind: Array, elems: elems}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, len(keys))
		for i, k := range keys {
			v, err := FromNative(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("member %q: %w", k, err)
			}
			members[i] = Member{Key: k, Value: v}
		}
		return Value{kind: Object, members: members}, nil
	}
	return fromReflect(reflect.ValueOf(x))
}

// fromReflect handles typed containers such as []string or map[string]int.
func fromReflect(rv reflect.Value) (Value, error) {
	//exhaustive:ignore // only containers and numbers reach here
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return FromNative(elems)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromNative(m)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumberValue(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NumberValue(float64(rv.Uint())), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NullValue(), nil
		}
		return FromNative(rv.Elem().Interface())
	}
	return Value{}, fmt.Errorf("unsupported type %s", rv.Type())
}
