// Package defaulttags provides the control-flow tags every registry starts
// with: if, with and load.
package defaulttags

import (
	"fmt"

	"github.com/neurodesk/tagtmpl/pkg/tmpl"
)

// Tags returns the built-in tags keyed by name.
func Tags() tmpl.Library {
	return tmpl.Library{
		"if":   IfNodeFactory{},
		"with": WithNodeFactory{},
		"load": LoadNodeFactory{},
	}
}

// Register adds the built-in tags to reg.
func Register(reg *tmpl.Registry) error {
	tags := Tags()
	for _, name := range []string{"if", "with", "load"} {
		if err := reg.Register(name, tags[name]); err != nil {
			return fmt.Errorf("registering default tags: %w", err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in tags.
func NewRegistry() *tmpl.Registry {
	reg := tmpl.NewRegistry()
	if err := Register(reg); err != nil {
		// a fresh registry has no tags to collide with
		panic(err)
	}
	return reg
}
