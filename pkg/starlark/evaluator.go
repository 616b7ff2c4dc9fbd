package starlark

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/neurodesk/tagtmpl/pkg/tmpl"
	"go.starlark.net/starlark"
)

// Evaluator runs Starlark scripts with a set of predeclared globals.
type Evaluator struct {
	thread  *starlark.Thread
	globals starlark.StringDict
}

// NewEvaluator creates a new Starlark evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{
		thread:  newThread("tagtmpl"),
		globals: make(starlark.StringDict),
	}
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(thread *starlark.Thread, msg string) {
			slog.Info(msg, "thread", thread.Name)
		},
	}
}

// SetGlobal predeclares name for scripts run afterwards.
func (e *Evaluator) SetGlobal(name string, value tmpl.Value) {
	e.globals[name] = ConvertToStarlark(value)
}

// SetGlobals predeclares every entry of vars, converted with tmpl.FromGo.
func (e *Evaluator) SetGlobals(vars map[string]any) {
	for name, v := range vars {
		e.SetGlobal(name, tmpl.FromGo(v))
	}
}

// ExecFile executes a Starlark file and returns the globals it defined.
// src may be nil (read filename), a string or a []byte.
func (e *Evaluator) ExecFile(filename string, src interface{}) (starlark.StringDict, error) {
	globals, err := starlark.ExecFile(e.thread, filename, src, maps.Clone(e.globals))
	if err != nil {
		return nil, fmt.Errorf("starlark execution error: %w", err)
	}
	return globals, nil
}
