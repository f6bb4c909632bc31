package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

const simpleDOT = "digraph G {\na -> b;\n}\n"

// fakeDot writes an executable shell script standing in for Graphviz.
func fakeDot(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "dot")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

const echoDot = `if [ "$1" = "-V" ]; then
  echo "dot - graphviz version 2.43.0 (0)" >&2
  exit 0
fi
echo "format $1"
cat
`

func TestExecRender(t *testing.T) {
	e := &Exec{Path: fakeDot(t, echoDot)}

	out, err := e.Render(context.Background(), []byte(simpleDOT), "svg")
	require.NoError(t, err)
	assert.Equal(t, "format -Tsvg\n"+simpleDOT, string(out))
	assert.Equal(t, NameDot, e.Name())
}

func TestExecRenderFailure(t *testing.T) {
	e := &Exec{Path: fakeDot(t, "echo 'Error: <stdin>: syntax error in line 1' >&2\nexit 1\n")}

	_, err := e.Render(context.Background(), []byte("digraph {"), "png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeRenderFailed), "got %v", err)
	assert.Contains(t, err.Error(), "syntax error in line 1")
}

func TestExecRenderInvalidFormat(t *testing.T) {
	e := &Exec{Path: fakeDot(t, echoDot)}
	_, err := e.Render(context.Background(), []byte(simpleDOT), "png -o /tmp/x")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
}

func TestExecRenderMissingProgram(t *testing.T) {
	e := &Exec{Path: filepath.Join(t.TempDir(), "no-such-dot")}
	_, err := e.Render(context.Background(), []byte(simpleDOT), "png")
	assert.True(t, errors.Is(err, errors.ErrCodeRendererNotFound), "got %v", err)
}

func TestCheckDot(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"graphviz", echoDot, ""},
		{"other program", "echo 'dot from somewhere else'\n", errors.ErrCodeRendererIncompatible},
		{"exit status", "exit 3\n", errors.ErrCodeRendererIncompatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDot(context.Background(), fakeDot(t, tt.body))
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}

	err := CheckDot(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, errors.ErrCodeRendererNotFound), "got %v", err)
}

func TestGraphvizRender(t *testing.T) {
	g := NewGraphviz()
	out, err := g.Render(context.Background(), []byte(simpleDOT), "svg")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "<svg"), "expected SVG output")
	assert.Equal(t, NameBuiltin, g.Name())
}

func TestGraphvizUnsupportedFormat(t *testing.T) {
	g := NewGraphviz()
	assert.False(t, g.Supports("pdf"))
	assert.True(t, g.Supports("png"))

	_, err := g.Render(context.Background(), []byte(simpleDOT), "pdf")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)
}

func TestCheckFormat(t *testing.T) {
	err := CheckFormat(NewGraphviz(), "pdf")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)
	assert.Contains(t, errors.UserMessage(err), "builtin renderer")

	assert.NoError(t, CheckFormat(NewGraphviz(), "svg"))
	assert.NoError(t, CheckFormat(NewExec(), "pdf"), "the dot program decides its own formats")
}

func TestGraphvizInvalidDOT(t *testing.T) {
	_, err := NewGraphviz().Render(context.Background(), []byte("digraph {"), "svg")
	assert.True(t, errors.Is(err, errors.ErrCodeRenderFailed), "got %v", err)
}

func TestSelect(t *testing.T) {
	ctx := context.Background()

	r, err := Select(ctx, NameBuiltin, nil)
	require.NoError(t, err)
	assert.Equal(t, NameBuiltin, r.Name())

	_, err = Select(ctx, "cairo", nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)

	t.Setenv("PATH", t.TempDir())
	r, err = Select(ctx, NameAuto, nil)
	require.NoError(t, err)
	assert.Equal(t, NameBuiltin, r.Name(), "auto falls back without a dot program")

	_, err = Select(ctx, NameDot, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeRendererNotFound), "got %v", err)
}

func TestSelectPrefersDot(t *testing.T) {
	dir := filepath.Dir(fakeDot(t, echoDot))
	t.Setenv("PATH", dir)

	r, err := Select(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, NameDot, r.Name())
}
