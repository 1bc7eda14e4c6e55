package twin

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Properties is read access to an untyped twin property bag.
type Properties interface {
	Lookup(key string) (any, bool)
}

// PropertyMap adapts a decoded JSON or YAML object to Properties.
type PropertyMap map[string]any

func (m PropertyMap) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

type anyKeyMap map[any]any

func (m anyKeyMap) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

type reflectMap struct{ v reflect.Value }

func (m reflectMap) Lookup(key string) (any, bool) {
	k := reflect.ValueOf(key).Convert(m.v.Type().Key())
	v := m.v.MapIndex(k)
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// asProperties reports whether value is map-like and wraps it.
func asProperties(value any) (Properties, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case Properties:
		return v, true
	case map[string]any:
		return PropertyMap(v), true
	case map[any]any:
		return anyKeyMap(v), true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		if rv.IsNil() {
			return nil, false
		}
		return reflectMap{v: rv}, true
	}
	return nil, false
}

// toInt64 coerces a decoded number to int64. Fractional and out of range
// values are rejected rather than truncated.
func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uintToInt64(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintToInt64(v)
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrFormat, v.String())
		}
		return floatToInt64(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrFormat, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrFormat, value)
	}
}

func uintToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64", ErrFormat, v)
	}
	return int64(v), nil
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrFormat, f)
	}
	return int64(f), nil
}
