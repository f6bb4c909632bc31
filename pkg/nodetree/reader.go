package nodetree

import (
	"bufio"
	"io"
	"strings"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

// Position is a location in the input. Line and Column are 1-based.
type Position struct {
	Line   int
	Column int
	Offset int
}

// pushed is a byte returned to the scanner together with where it was read.
type pushed struct {
	b  byte
	at Position
}

// scanner reads the dump byte by byte and supports pushing back any number
// of bytes in reverse read order.
type scanner struct {
	r       *bufio.Reader
	pending []pushed // LIFO
	pos     Position // position of the next byte
}

func newScanner(r io.Reader) *scanner {
	return &scanner{
		r:   bufio.NewReader(r),
		pos: Position{Line: 1, Column: 1},
	}
}

// next returns the next byte and its position. At the end of input it
// returns io.EOF and the position just past the last byte.
func (s *scanner) next() (byte, Position, error) {
	if n := len(s.pending); n > 0 {
		p := s.pending[n-1]
		s.pending = s.pending[:n-1]
		s.pos = advance(p.at, p.b)
		return p.b, p.at, nil
	}
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, s.pos, err
	}
	at := s.pos
	s.pos = advance(at, b)
	return b, at, nil
}

// unread pushes b back; it will be returned by the next call to next.
func (s *scanner) unread(b byte, at Position) {
	s.pending = append(s.pending, pushed{b: b, at: at})
	s.pos = at
}

func advance(p Position, b byte) Position {
	p.Offset++
	if b == '\n' {
		p.Line++
		p.Column = 1
	} else {
		p.Column++
	}
	return p
}

// isSpace matches the C locale's isspace.
func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// readName reads a node or field name up to, but not including, the next
// ':', '{' or '}'. A '(' whose next non-space byte is '{' opens a list and
// also ends the name; any other '(' is part of the text.
func (s *scanner) readName() (string, error) {
	start := s.pos
	var name []byte
	for {
		b, at, err := s.next()
		if err == io.EOF {
			return "", errors.At(errors.ErrCodeUnbalancedInput, start.Line, start.Column,
				"unexpected end of input while reading name %q", sanitize(name))
		}
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeIO, err, "read node tree")
		}

		switch b {
		case ':', '{', '}':
			s.unread(b, at)
			return sanitize(name), nil
		case '(':
			list, err := s.braceFollows()
			if err != nil {
				return "", err
			}
			if list {
				s.unread(b, at)
				return sanitize(name), nil
			}
		}
		name = append(name, b)
	}
}

// braceFollows reports whether the next non-space byte is '{'.
// Nothing is consumed.
func (s *scanner) braceFollows() (bool, error) {
	var skipped []pushed
	found := false
	for {
		b, at, err := s.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, errors.Wrap(errors.ErrCodeIO, err, "read node tree")
		}
		if !isSpace(b) {
			found = b == '{'
			s.unread(b, at)
			break
		}
		skipped = append(skipped, pushed{b: b, at: at})
	}
	for i := len(skipped) - 1; i >= 0; i-- {
		s.unread(skipped[i].b, skipped[i].at)
	}
	return found, nil
}

// labelReplacer removes the characters that would break an HTML-like DOT label.
var labelReplacer = strings.NewReplacer(`"`, " ", "<", "-", ">", "-")

// sanitize trims the raw name and replaces reserved label characters:
// '"' becomes a space, '<' and '>' become '-'. PostgreSQL prints NULL
// pointers as "<>", which therefore shows up as "--".
func sanitize(raw []byte) string {
	return labelReplacer.Replace(strings.TrimSpace(string(raw)))
}
