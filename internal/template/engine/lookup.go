package engine

import (
	"reflect"
	"strconv"
)

// attr navigates one step of a dotted lookup into value, reporting whether
// the step resolved.
//
// Navigation tries, in order: string-keyed map access, numeric indexing into
// a sequence, exported struct fields and finally no-argument exported
// methods. Method calls may panic in user code, which is treated as an
// unresolved step rather than allowed to kill the render.
func attr(value any, part string) (result any, ok bool) {
	defer func() {
		if recover() != nil {
			result = nil
			ok = false
		}
	}()

	if m, isMap := value.(map[string]any); isMap {
		v, exists := m[part]
		return v, exists
	}

	v := reflect.ValueOf(value)

	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}

		v = v.Elem()
	}

	if !v.IsValid() {
		return nil, false
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}

		item := v.MapIndex(reflect.ValueOf(part))
		if !item.IsValid() {
			return nil, false
		}

		return item.Interface(), true
	case reflect.Slice, reflect.Array, reflect.String:
		index, err := strconv.Atoi(part)
		if err != nil || index < 0 || index >= v.Len() {
			return nil, false
		}

		return v.Index(index).Interface(), true
	case reflect.Struct:
		if field := v.FieldByName(part); field.IsValid() && field.CanInterface() {
			return field.Interface(), true
		}
	}

	return callMethod(reflect.ValueOf(value), part)
}

// callMethod invokes a no-argument method named part on v, if one exists
// with at least one return value.
func callMethod(v reflect.Value, part string) (any, bool) {
	if !v.IsValid() {
		return nil, false
	}

	method := v.MethodByName(part)
	if !method.IsValid() {
		return nil, false
	}

	t := method.Type()
	if t.NumIn() != 0 || t.NumOut() == 0 {
		return nil, false
	}

	return method.Call(nil)[0].Interface(), true
}
