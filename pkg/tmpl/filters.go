package tmpl

import (
	"fmt"
	"maps"
	"strings"
)

// FilterFunc transforms a value in a filter pipeline.
type FilterFunc func(val Value, args []Value) (Value, error)

var defaultFilters = map[string]FilterFunc{
	"upper": func(val Value, _ []Value) (Value, error) { return StringValue(strings.ToUpper(val.String())), nil },
	"lower": func(val Value, _ []Value) (Value, error) { return StringValue(strings.ToLower(val.String())), nil },
	"trim":  func(val Value, _ []Value) (Value, error) { return StringValue(strings.TrimSpace(val.String())), nil },
	"default": func(val Value, args []Value) (Value, error) {
		if len(args) < 1 || val.Truth() {
			return val, nil
		}
		return args[0], nil
	},
	"join": func(val Value, args []Value) (Value, error) {
		sep := ","
		if len(args) > 0 {
			sep = args[0].String()
		}
		items, err := iterateValue(val)
		if err != nil {
			return StringValue(val.String()), nil
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = it.String()
		}
		return StringValue(strings.Join(parts, sep)), nil
	},
	"length": func(val Value, _ []Value) (Value, error) {
		items, err := iterateValue(val)
		if err != nil {
			return nil, err
		}
		return IntValue(len(items)), nil
	},
	"first": func(val Value, _ []Value) (Value, error) {
		items, err := iterateValue(val)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return NoneValue{}, nil
		}
		return items[0], nil
	},
	"last": func(val Value, _ []Value) (Value, error) {
		items, err := iterateValue(val)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return NoneValue{}, nil
		}
		return items[len(items)-1], nil
	},
	"raise": func(val Value, args []Value) (Value, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s", args[0].String())
		}
		return nil, fmt.Errorf("%s", val.String())
	},
}

// DefaultFilters returns a copy of the built-in filter set.
func DefaultFilters() map[string]FilterFunc {
	return maps.Clone(defaultFilters)
}
