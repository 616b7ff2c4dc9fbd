package tmpl

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Value is a runtime value seen by templates. Every value can be printed and
// has a truthiness used by conditional tags.
type Value interface {
	String() string
	Truth() bool
}

// LookupHook can be implemented by values that serve attribute lookups
// (the "b" in "a.b") themselves instead of being plain dictionaries.
type LookupHook interface {
	OnLookup(key string) (Value, bool)
}

// NoneValue represents the absence of a value. Unresolved variables
// evaluate to NoneValue.
type NoneValue struct{}

func (NoneValue) String() string { return "" }
func (NoneValue) Truth() bool    { return false }

// BoolValue wraps a boolean.
type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b BoolValue) Truth() bool { return bool(b) }

// IntValue wraps an integer (64-bit).
type IntValue int64

func (i IntValue) String() string { return strconv.FormatInt(int64(i), 10) }
func (i IntValue) Truth() bool    { return int64(i) != 0 }

// FloatValue wraps a float (64-bit).
type FloatValue float64

func (f FloatValue) String() string { return fmt.Sprintf("%v", float64(f)) }
func (f FloatValue) Truth() bool    { return float64(f) != 0 }

// StringValue wraps a string.
type StringValue string

func (s StringValue) String() string { return string(s) }
func (s StringValue) Truth() bool    { return len(string(s)) > 0 }

// ListValue wraps a list of values.
type ListValue []Value

func (l ListValue) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}
func (l ListValue) Truth() bool { return len(l) > 0 }

// DictValue wraps a string-keyed dictionary of values.
type DictValue map[string]Value

func (d DictValue) String() string { return "{...}" }
func (d DictValue) Truth() bool    { return len(d) > 0 }

// OnLookup implements LookupHook.
func (d DictValue) OnLookup(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// FromGo converts a Go value to a Value.
func FromGo(v any) Value {
	if v == nil {
		return NoneValue{}
	}
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint:
		return fromUint(uint64(t))
	case uint32:
		return IntValue(int64(t))
	case uint64:
		return fromUint(t)
	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case []byte:
		return StringValue(string(t))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		out := make(ListValue, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, FromGo(rv.Index(i).Interface()))
		}
		return out
	case reflect.Map:
		out := DictValue{}
		it := rv.MapRange()
		for it.Next() {
			// yaml decodes into map[any]any for nested mappings
			out[fmt.Sprint(it.Key().Interface())] = FromGo(it.Value().Interface())
		}
		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NoneValue{}
		}
		return FromGo(rv.Elem().Interface())
	}
	return StringValue(fmt.Sprintf("%v", v))
}

// fromUint keeps values above math.MaxInt64 exact by falling back to their
// decimal text.
func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return StringValue(strconv.FormatUint(u, 10))
	}
	return IntValue(int64(u))
}

// attr resolves one segment of a dotted path against v. Lists accept
// numeric segments as indexes.
func attr(v Value, key string) (Value, bool) {
	switch t := v.(type) {
	case LookupHook:
		return t.OnLookup(key)
	case ListValue:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	}
	return nil, false
}

// iterateValue converts a Value into a []Value for filters that walk items.
func iterateValue(v Value) ([]Value, error) {
	switch t := v.(type) {
	case NoneValue:
		return nil, nil
	case StringValue:
		var out []Value
		for _, r := range string(t) {
			out = append(out, StringValue(string(r)))
		}
		return out, nil
	case ListValue:
		out := make([]Value, len(t))
		copy(out, t)
		return out, nil
	case DictValue:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = StringValue(k)
		}
		return out, nil
	}
	return nil, fmt.Errorf("not iterable: %T", v)
}
