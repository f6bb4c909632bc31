package render

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

// Renderer names accepted by [Select].
const (
	NameAuto    = "auto"
	NameDot     = "dot"
	NameBuiltin = "builtin"
)

// DefaultFormat is the image format used when none is given.
const DefaultFormat = "png"

// Renderer converts DOT text to an image in the given format.
type Renderer interface {
	// Name identifies the renderer in logs and cache keys.
	Name() string
	Render(ctx context.Context, dot []byte, format string) ([]byte, error)
}

// FormatChecker is implemented by renderers that produce a fixed set of
// formats.
type FormatChecker interface {
	Supports(format string) bool
}

// CheckFormat returns an UNSUPPORTED error when r is known not to produce
// format. Renderers that do not implement [FormatChecker] accept any format.
func CheckFormat(r Renderer, format string) error {
	if fc, ok := r.(FormatChecker); ok && !fc.Supports(format) {
		return errors.New(errors.ErrCodeUnsupported,
			"format %q is not supported by the %s renderer", format, r.Name())
	}
	return nil
}

// Select returns the renderer registered under name. An empty name means
// [NameAuto].
func Select(ctx context.Context, name string, logger *log.Logger) (Renderer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	switch name {
	case NameDot:
		e := NewExec()
		if err := CheckDot(ctx, e.Path); err != nil {
			return nil, err
		}
		return e, nil
	case NameBuiltin:
		return NewGraphviz(), nil
	case NameAuto, "":
		e := NewExec()
		if err := CheckDot(ctx, e.Path); err != nil {
			logger.Debug("using built-in renderer", "reason", errors.UserMessage(err))
			return NewGraphviz(), nil
		}
		logger.Debug("using external renderer", "path", e.Path)
		return e, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown renderer %q (want %s, %s or %s)", name, NameAuto, NameDot, NameBuiltin)
	}
}
