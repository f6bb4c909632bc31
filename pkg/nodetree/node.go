package nodetree

import "fmt"

// Kind controls how a node behaves while parsing and whether it is rendered
// as a table of its own.
type Kind int

const (
	// Structural is a "{NAME ...}" node.
	Structural Kind = iota
	// List is a field whose value is a "( {..} {..} )" list of structural nodes.
	// It shares the ordinal of the node it belongs to.
	List
	// Item is a ":field value" entry of a structural node.
	Item
	// Suppressed is a field whose value is a single structural node.
	// It shares the ordinal of the node it belongs to.
	Suppressed
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case List:
		return "list"
	case Item:
		return "item"
	case Suppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Visible reports whether nodes of this kind get their own table in the graph.
func (k Kind) Visible() bool {
	return k == Structural || k == Item
}

// NodeID addresses a node inside its [Tree].
type NodeID int

// Port is the address of one cell of a rendered node table:
// the table's ordinal and the row slot (0 for the header).
type Port struct {
	Ordinal int
	Slot    int
}

// String returns the DOT form of the port, e.g. "node_3:f1".
func (p Port) String() string {
	return fmt.Sprintf("node_%d:f%d", p.Ordinal, p.Slot)
}

// Edge connects a cell of a parent table to the header of a child table.
// List is true when the edge chains elements of a list.
type Edge struct {
	From Port
	To   Port
	List bool
}

// Node is one entry of a parsed tree.
//
// Nodes are owned by their [Tree]; callers obtain them through [Tree.Node]
// and must not modify them.
type Node struct {
	Kind  Kind
	Label string // sanitized name, or "field value" text for items

	// Ordinal addresses the table this node is rendered in.
	// List and Suppressed nodes carry the ordinal of their owner.
	Ordinal int
	// Slot is the 1-based position among the parent's children (0 for the root).
	Slot int

	Children []NodeID
	// Edges recorded on this node when structural children were attached,
	// in attachment order.
	Edges []Edge
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Tree is a parsed node tree. Nodes are stored in creation order, so a
// node's [NodeID] equals the ordinal it was minted with.
type Tree struct {
	nodes []Node
	root  NodeID
}

// Root returns the ID of the outermost structural node.
func (t *Tree) Root() NodeID {
	return t.root
}

// Node returns the node with the given ID.
// It panics if id was not produced by this tree.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Count returns the number of nodes of the given kind.
func (t *Tree) Count(kind Kind) int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].Kind == kind {
			n++
		}
	}
	return n
}

// EdgeCount returns the number of edges recorded across all nodes.
func (t *Tree) EdgeCount() int {
	n := 0
	for i := range t.nodes {
		n += len(t.nodes[i].Edges)
	}
	return n
}

// Walk visits nodes breadth-first starting at the root, children in slot
// order. It stops early when fn returns false.
func (t *Tree) Walk(fn func(id NodeID, n *Node) bool) {
	if len(t.nodes) == 0 {
		return
	}
	queue := []NodeID{t.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := &t.nodes[id]
		if !fn(id, n) {
			return
		}
		queue = append(queue, n.Children...)
	}
}

// Depth returns the maximum nesting depth of the tree; a lone root has depth 1.
func (t *Tree) Depth() int {
	if len(t.nodes) == 0 {
		return 0
	}
	type entry struct {
		id    NodeID
		depth int
	}
	deepest := 0
	stack := []entry{{t.root, 1}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.depth > deepest {
			deepest = e.depth
		}
		for _, c := range t.nodes[e.id].Children {
			stack = append(stack, entry{c, e.depth + 1})
		}
	}
	return deepest
}

// add appends n to the arena and returns its ID.
func (t *Tree) add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}
