package nodetree

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

// Option configures a [Parser].
type Option func(*Parser)

// WithLogger makes the parser trace every stack push and pop at debug level.
func WithLogger(l *log.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// frame is an open scope on the parser stack.
type frame struct {
	id NodeID
	at Position // where the scope was opened
}

// Parser rebuilds a [Tree] from a node tree dump. A Parser is single use:
// create one per input with [NewParser], or call [Parse].
type Parser struct {
	sc          *scanner
	tree        *Tree
	stack       []frame
	ordinal     int
	prevWasItem bool
	started     bool
	logger      *log.Logger
}

// NewParser creates a parser reading from r.
func NewParser(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		sc:     newScanner(r),
		tree:   &Tree{},
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads one node tree from r.
func Parse(r io.Reader, opts ...Option) (*Tree, error) {
	return NewParser(r, opts...).Parse()
}

// ParseString reads one node tree from s.
func ParseString(s string, opts ...Option) (*Tree, error) {
	return Parse(strings.NewReader(s), opts...)
}

// Parse consumes the input until the closing brace of the outermost node
// and returns the tree. Bytes after that brace are left unread.
func (p *Parser) Parse() (*Tree, error) {
	if p.tree == nil {
		return nil, errors.New(errors.ErrCodeInternal, "parser already used")
	}
	for {
		b, at, err := p.sc.next()
		if err == io.EOF {
			return nil, p.eofError(at)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "read node tree")
		}

		switch b {
		case '{':
			err = p.openNode(at)
		case '}':
			var done bool
			if done, err = p.closeNode(at); err == nil && done {
				t := p.tree
				p.tree = nil
				return t, nil
			}
		case '(':
			err = p.openList(at)
		case ')':
			err = p.closeList(at)
		case ':':
			err = p.addItem(at)
		default:
			// whitespace and separators between tokens
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) eofError(at Position) error {
	if !p.started {
		return errors.At(errors.ErrCodeInvalidInput, at.Line, at.Column, "no node tree found")
	}
	open := p.stack[len(p.stack)-1]
	return errors.At(errors.ErrCodeUnbalancedInput, open.at.Line, open.at.Column,
		"unexpected end of input: %d unclosed scope(s), innermost %s %q opened here",
		len(p.stack), p.tree.nodes[open.id].Kind, p.tree.nodes[open.id].Label)
}

func (p *Parser) mint() int {
	o := p.ordinal
	p.ordinal++
	return o
}

func (p *Parser) push(id NodeID, at Position) {
	p.stack = append(p.stack, frame{id: id, at: at})
	n := &p.tree.nodes[id]
	p.logger.Debug("stack push", "kind", n.Kind, "label", n.Label, "depth", len(p.stack))
}

func (p *Parser) pop() NodeID {
	f := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	n := &p.tree.nodes[f.id]
	p.logger.Debug("stack pop", "kind", n.Kind, "label", n.Label, "depth", len(p.stack))
	return f.id
}

// openNode handles '{': a new structural node attached to the top of stack.
func (p *Parser) openNode(at Position) error {
	label, err := p.sc.readName()
	if err != nil {
		return err
	}
	id := p.tree.add(Node{Kind: Structural, Label: label, Ordinal: p.mint()})

	if len(p.stack) == 0 {
		p.started = true
		p.tree.root = id
		p.push(id, at)
		p.prevWasItem = false
		return nil
	}

	top := p.stack[len(p.stack)-1].id
	if p.prevWasItem {
		// The field just declared holds this node as its value.
		owner := &p.tree.nodes[top]
		field := owner.Children[len(owner.Children)-1]
		fn := &p.tree.nodes[field]
		fn.Kind = Suppressed
		fn.Ordinal = owner.Ordinal
		top = field
	}

	parent := &p.tree.nodes[top]
	from := Port{Ordinal: parent.Ordinal, Slot: parent.Slot}
	if parent.Kind == List && len(parent.Children) > 0 {
		prev := &p.tree.nodes[parent.Children[len(parent.Children)-1]]
		from = Port{Ordinal: prev.Ordinal, Slot: 0}
	}

	child := &p.tree.nodes[id]
	parent.Edges = append(parent.Edges, Edge{
		From: from,
		To:   Port{Ordinal: child.Ordinal, Slot: 0},
		List: parent.Kind == List,
	})
	parent.Children = append(parent.Children, id)
	child.Slot = len(parent.Children)

	p.push(id, at)
	p.prevWasItem = false
	return nil
}

// closeNode handles '}'. It reports true when the root node was closed.
func (p *Parser) closeNode(at Position) (bool, error) {
	if len(p.stack) == 0 {
		return false, errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"unexpected '}' with no open node")
	}
	top := &p.tree.nodes[p.stack[len(p.stack)-1].id]
	if top.Kind == List {
		return false, errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"unexpected '}' inside list %q", top.Label)
	}
	p.pop()
	p.prevWasItem = false
	return len(p.stack) == 0, nil
}

// openList handles '(': the field declared last becomes a list and is pushed.
func (p *Parser) openList(at Position) error {
	if len(p.stack) == 0 {
		return errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"unexpected '(' with no open node")
	}
	owner := &p.tree.nodes[p.stack[len(p.stack)-1].id]
	if len(owner.Children) == 0 {
		return errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"unexpected '(' before any field of %q", owner.Label)
	}
	field := owner.Children[len(owner.Children)-1]
	fn := &p.tree.nodes[field]
	if fn.Kind != Item {
		return errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"unexpected '(' after %s %q", fn.Kind, fn.Label)
	}
	list, err := p.sc.braceFollows()
	if err != nil {
		return err
	}
	if !list {
		return errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"list of %q does not start with a node", fn.Label)
	}

	fn.Kind = List
	fn.Ordinal = owner.Ordinal
	p.push(field, at)
	p.prevWasItem = false
	return nil
}

// closeList handles ')'.
func (p *Parser) closeList(at Position) error {
	if len(p.stack) == 0 {
		return errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"unexpected ')' with no open list")
	}
	top := &p.tree.nodes[p.stack[len(p.stack)-1].id]
	if top.Kind != List {
		return errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"unexpected ')' inside node %q", top.Label)
	}
	p.pop()
	p.prevWasItem = false
	return nil
}

// addItem handles ':': a new field of the node on top of the stack.
func (p *Parser) addItem(at Position) error {
	if len(p.stack) == 0 {
		return errors.At(errors.ErrCodeMalformedInput, at.Line, at.Column,
			"unexpected ':' with no open node")
	}
	label, err := p.sc.readName()
	if err != nil {
		return err
	}
	id := p.tree.add(Node{Kind: Item, Label: label, Ordinal: p.mint()})

	owner := &p.tree.nodes[p.stack[len(p.stack)-1].id]
	owner.Children = append(owner.Children, id)
	p.tree.nodes[id].Slot = len(owner.Children)
	p.prevWasItem = true
	return nil
}
