package render

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

// Exec renders with an external Graphviz "dot" program.
type Exec struct {
	// Path is the program to run; a bare name is looked up in PATH.
	Path string
}

// NewExec returns an Exec running "dot" from PATH.
func NewExec() *Exec {
	return &Exec{Path: "dot"}
}

// Name implements Renderer.
func (e *Exec) Name() string { return NameDot }

// Render pipes dot through "dot -T<format>" and returns its stdout.
func (e *Exec) Render(ctx context.Context, dot []byte, format string) ([]byte, error) {
	if err := errors.ValidateFormat(format); err != nil {
		return nil, err
	}
	path, err := exec.LookPath(e.Path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRendererNotFound, err,
			"could not find %q program; install Graphviz or use the builtin renderer", e.Path)
	}

	cmd := exec.CommandContext(ctx, path, "-T"+format)
	cmd.Stdin = bytes.NewReader(dot)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err,
			"%s -T%s: %s", e.Path, format, strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}

// CheckDot verifies that path names a Graphviz "dot" program. Graphviz prints
// its version banner on stderr, so both streams are searched.
func CheckDot(ctx context.Context, path string) error {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRendererNotFound, err, "could not find %q program", path)
	}

	out, err := exec.CommandContext(ctx, resolved, "-V").CombinedOutput()
	if err != nil {
		return errors.Wrap(errors.ErrCodeRendererIncompatible, err, "%s -V", path)
	}
	if !strings.Contains(string(out), "graphviz") {
		return errors.New(errors.ErrCodeRendererIncompatible,
			"%q is not a Graphviz dot program", path)
	}
	return nil
}
