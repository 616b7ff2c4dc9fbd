package starlark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/neurodesk/tagtmpl/pkg/netcache"
	"github.com/neurodesk/tagtmpl/pkg/tmpl"
	"go.starlark.net/starlark"
)

// KindTag is the node kind of every Starlark-defined tag.
const KindTag tmpl.NodeKind = "starlark"

// Loader resolves {% load name %} to the script <dir>/name.star in the first
// directory that has it. Every exported (not underscore-prefixed) callable
// global of the script becomes a tag of the same name. Globals are
// predeclared for the script.
type Loader struct {
	Dirs    []string
	Globals map[string]any
}

func (l Loader) LoadLibrary(name string) (tmpl.Library, error) {
	if !tmpl.IsIdentifier(name) {
		return nil, tmpl.ErrLibraryNotFound{Name: name}
	}
	for _, dir := range l.Dirs {
		path := filepath.Join(dir, name+".star")
		src, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		slog.Debug("loading starlark library", "library", name, "path", path)
		return LoadSource(path, src, l.Globals)
	}
	return nil, tmpl.ErrLibraryNotFound{Name: name}
}

// RemoteLoader resolves {% load name %} to <base>/name.star on the first
// base URL that serves it. Scripts are kept in Cache and revalidated on each
// load.
type RemoteLoader struct {
	BaseURLs []string
	Cache    *netcache.Cache
	Globals  map[string]any
}

func (l RemoteLoader) LoadLibrary(name string) (tmpl.Library, error) {
	if !tmpl.IsIdentifier(name) {
		return nil, tmpl.ErrLibraryNotFound{Name: name}
	}
	for _, base := range l.BaseURLs {
		url := strings.TrimSuffix(base, "/") + "/" + name + ".star"
		src, cached, err := l.Cache.Fetch(context.Background(), url)
		if errors.Is(err, netcache.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		slog.Debug("loading remote starlark library", "library", name, "url", url, "cached", cached)
		return LoadSource(url, src, l.Globals)
	}
	return nil, tmpl.ErrLibraryNotFound{Name: name}
}

// LoadSource executes a library script with vars predeclared and returns its
// tags. The script's globals are frozen so its functions can be called from
// concurrent renders.
func LoadSource(filename string, src interface{}, vars map[string]any) (tmpl.Library, error) {
	e := NewEvaluator()
	e.SetGlobals(vars)
	globals, err := e.ExecFile(filename, src)
	if err != nil {
		return nil, err
	}
	globals.Freeze()
	lib := tmpl.Library{}
	for _, name := range globals.Keys() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		fn, ok := globals[name].(starlark.Callable)
		if !ok {
			continue
		}
		lib[name] = &TagFactory{Name: name, Fn: fn}
	}
	if len(lib) == 0 {
		return nil, fmt.Errorf("%s defines no tags", filename)
	}
	return lib, nil
}

// TagFactory builds nodes for {% name arg1 arg2 ... %}, where every argument
// is a filter expression.
type TagFactory struct {
	Name string
	Fn   starlark.Callable
}

func (f *TagFactory) Build(args string, p *tmpl.Parser) (tmpl.Node, error) {
	n := &TagNode{Name: f.Name, Fn: f.Fn}
	for _, a := range tmpl.SmartSplit(args) {
		fe, err := tmpl.ParseFilterExpression(a, p)
		if err != nil {
			return nil, err
		}
		n.Args = append(n.Args, fe)
	}
	return n, nil
}

// TagNode calls a Starlark function with its resolved arguments and writes
// the text of the result.
type TagNode struct {
	Name string
	Fn   starlark.Callable
	Args []*tmpl.FilterExpression
}

func (*TagNode) Kind() tmpl.NodeKind { return KindTag }

func (n *TagNode) Render(buf *bytes.Buffer, ctx *tmpl.Context) error {
	args := make(starlark.Tuple, len(n.Args))
	for i, a := range n.Args {
		v, err := a.Resolve(ctx)
		if err != nil {
			return err
		}
		args[i] = ConvertToStarlark(v)
	}
	res, err := starlark.Call(newThread("tag "+n.Name), n.Fn, args, nil)
	if err != nil {
		return fmt.Errorf("tag %s: %w", n.Name, err)
	}
	buf.WriteString(ConvertFromStarlark(res).String())
	return nil
}

func (n *TagNode) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("Starlark(%s %s)", n.Name, strings.Join(parts, " "))
}
