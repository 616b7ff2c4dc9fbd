package starlark

import (
	"github.com/neurodesk/tagtmpl/pkg/tmpl"
	"go.starlark.net/starlark"
)

// ConvertToStarlark converts a template Value to a Starlark value
func ConvertToStarlark(val tmpl.Value) starlark.Value {
	if val == nil {
		return starlark.None
	}

	switch v := val.(type) {
	case tmpl.StringValue:
		return starlark.String(string(v))
	case tmpl.IntValue:
		return starlark.MakeInt64(int64(v))
	case tmpl.FloatValue:
		return starlark.Float(float64(v))
	case tmpl.BoolValue:
		return starlark.Bool(bool(v))
	case tmpl.ListValue:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ConvertToStarlark(item)
		}
		return starlark.NewList(items)
	case tmpl.DictValue:
		dict := starlark.NewDict(len(v))
		for key, value := range v {
			_ = dict.SetKey(starlark.String(key), ConvertToStarlark(value))
		}
		return dict
	case tmpl.NoneValue:
		return starlark.None
	case StarlarkValue:
		return v.Value
	default:
		// For unknown types, convert to string
		return starlark.String(val.String())
	}
}

// ConvertFromStarlark converts a Starlark value to a template Value
func ConvertFromStarlark(val starlark.Value) tmpl.Value {
	if val == nil || val == starlark.None {
		return tmpl.NoneValue{}
	}

	switch v := val.(type) {
	case starlark.String:
		return tmpl.StringValue(string(v))
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return tmpl.IntValue(i)
		}
		// For very large integers, convert to string
		return tmpl.StringValue(v.String())
	case starlark.Float:
		return tmpl.FloatValue(float64(v))
	case starlark.Bool:
		return tmpl.BoolValue(bool(v))
	case *starlark.List:
		items := make(tmpl.ListValue, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = ConvertFromStarlark(v.Index(i))
		}
		return items
	case starlark.Tuple:
		items := make(tmpl.ListValue, len(v))
		for i, item := range v {
			items[i] = ConvertFromStarlark(item)
		}
		return items
	case *starlark.Dict:
		dict := make(tmpl.DictValue)
		for _, item := range v.Items() {
			key := item[0]
			value := item[1]
			if keyStr, ok := key.(starlark.String); ok {
				dict[string(keyStr)] = ConvertFromStarlark(value)
			} else {
				dict[key.String()] = ConvertFromStarlark(value)
			}
		}
		return dict
	default:
		return StarlarkValue{Value: val}
	}
}

// StarlarkValue wraps a Starlark value that has no template equivalent,
// such as a function, so it can travel through a template unchanged.
type StarlarkValue struct {
	Value starlark.Value
}

func (w StarlarkValue) String() string {
	if s, ok := w.Value.(starlark.String); ok {
		return string(s)
	}
	return w.Value.String()
}

func (w StarlarkValue) Truth() bool {
	if w.Value == nil {
		return false
	}
	return bool(w.Value.Truth())
}

var _ tmpl.Value = StarlarkValue{}
