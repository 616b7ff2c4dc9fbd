package defaulttags

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/neurodesk/tagtmpl/pkg/tmpl"
)

const KindLoad tmpl.NodeKind = "load"

// LoadNode marks where a {% load %} appeared. Its work happens at parse time.
type LoadNode struct{}

// LoadNodeFactory parses {% load lib [lib...] %} and registers each
// library's tags with the parser's registry, so tags below the load can use
// them.
type LoadNodeFactory struct{}

func (LoadNodeFactory) Build(args string, p *tmpl.Parser) (tmpl.Node, error) {
	names := tmpl.SmartSplit(args)
	if len(names) == 0 {
		return nil, tmpl.NewTagSyntaxError("'load' statement requires at least one argument")
	}
	for _, name := range names {
		if err := p.Registry().LoadLibrary(name); err != nil {
			var dup *tmpl.DuplicateTagError
			if errors.As(err, &dup) {
				return nil, err
			}
			return nil, &tmpl.TagSyntaxError{Msg: fmt.Sprintf("could not load library %q", name), Err: err}
		}
	}
	return &LoadNode{}, nil
}

func (*LoadNode) Kind() tmpl.NodeKind { return KindLoad }

func (*LoadNode) Render(*bytes.Buffer, *tmpl.Context) error { return nil }

func (*LoadNode) String() string { return "Load" }
