package render

import (
	"bytes"
	"context"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

var builtinFormats = map[string]graphviz.Format{
	"svg": graphviz.SVG,
	"png": graphviz.PNG,
	"jpg": graphviz.JPG,
	"dot": graphviz.XDOT,
}

// Graphviz renders in-process with the WebAssembly build of Graphviz.
type Graphviz struct{}

// NewGraphviz returns the built-in renderer.
func NewGraphviz() *Graphviz {
	return &Graphviz{}
}

// Name implements Renderer.
func (*Graphviz) Name() string { return NameBuiltin }

// Supports reports whether format can be produced without an external program.
func (*Graphviz) Supports(format string) bool {
	_, ok := builtinFormats[format]
	return ok
}

var _ FormatChecker = (*Graphviz)(nil)

// Render implements Renderer.
func (*Graphviz) Render(ctx context.Context, dot []byte, format string) ([]byte, error) {
	f, ok := builtinFormats[format]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"format %q is not supported by the builtin renderer (use svg, png, jpg or dot, or install Graphviz)", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, f, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", format)
	}
	return buf.Bytes(), nil
}
