// Package colormap resolves the colors used to highlight node tables by
// node name.
//
// A color map file has one record per line:
//
//	# name, background[, font]
//	QUERY,       skyblue
//	PLANNEDSTMT, pink,    white
//
// Blank lines and lines starting with '#' are ignored. Records with fewer
// than two or more than three fields, or with an unusable color, are
// reported through the logger and skipped. The border of a highlighted
// table always uses the background color.
package colormap

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

// Colors is the styling applied to the header of one node table.
// Empty fields are not written.
type Colors struct {
	Border     string
	Background string
	Font       string
}

// Resolver looks up colors by node name.
type Resolver interface {
	Lookup(name string) (Colors, bool)
}

// Map is a Resolver backed by an exact-match table.
type Map map[string]Colors

// Lookup implements Resolver.
func (m Map) Lookup(name string) (Colors, bool) {
	c, ok := m[name]
	return c, ok
}

// Entry is a color map record as written in the config file:
//
//	[colors.QUERY]
//	background = "skyblue"
//	font = "black"
type Entry struct {
	Background string `toml:"background"`
	Font       string `toml:"font"`
}

// Default returns the built-in map used when coloring is enabled and no
// color map file is given.
func Default() Map {
	return Map{
		"QUERY":       withBackground("skyblue", ""),
		"PLANNEDSTMT": withBackground("pink", ""),
		"TARGETENTRY": withBackground("sienna", ""),
	}
}

func withBackground(bg, font string) Colors {
	return Colors{Border: bg, Background: bg, Font: font}
}

// Load reads a color map file. Only the file's records are returned; the
// built-in map is not merged in.
func Load(path string, logger *log.Logger) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open color map %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open color map %s", path)
	}
	defer f.Close()

	m, err := Parse(f, orDiscard(logger).With("file", path))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Parse reads color map records from r. A nil logger discards warnings.
func Parse(r io.Reader, logger *log.Logger) (Map, error) {
	logger = orDiscard(logger)

	m := make(Map)
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 || len(fields) > 3 {
			logger.Warn("invalid node colors mapping", "line", lineno, "fields", len(fields))
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		name, bg, font := fields[0], fields[1], ""
		if len(fields) == 3 {
			font = fields[2]
		}
		if err := validate(bg, font); err != nil {
			logger.Warn("invalid node colors mapping", "line", lineno, "err", errors.UserMessage(err))
			continue
		}
		m[name] = withBackground(bg, font)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read color map")
	}
	return m, nil
}

// FromConfig converts config file entries into a Map. Entries with an
// unusable color are rejected.
func FromConfig(entries map[string]Entry) (Map, error) {
	m := make(Map, len(entries))
	for name, e := range entries {
		if err := validate(e.Background, e.Font); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "colors.%s", name)
		}
		m[name] = withBackground(e.Background, e.Font)
	}
	return m, nil
}

// Merge returns a new Map holding base overlaid with each of layers in turn.
func Merge(base Map, layers ...Map) Map {
	out := make(Map, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

func validate(bg, font string) error {
	if err := errors.ValidateColor(bg); err != nil {
		return err
	}
	return errors.ValidateColor(font)
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}
