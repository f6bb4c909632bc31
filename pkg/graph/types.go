package graph

import "github.com/matzehuels/pgnode2graph/pkg/nodetree"

// Graph is the serialization format for node trees.
type Graph struct {
	Root  int    `json:"root"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one tree node.
type Node struct {
	ID       int    `json:"id"`
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	Ordinal  int    `json:"ordinal"`
	Slot     int    `json:"slot,omitempty"`
	Children []int  `json:"children,omitempty"`
}

// Edge connects two table cells, written as DOT ports.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	List bool   `json:"list,omitempty"`
}

// FromTree converts a parsed tree to its serialization format.
func FromTree(t *nodetree.Tree) Graph {
	out := Graph{
		Root:  int(t.Root()),
		Nodes: make([]Node, t.Len()),
		Edges: make([]Edge, 0, t.EdgeCount()),
	}
	for i := range out.Nodes {
		n := t.Node(nodetree.NodeID(i))
		out.Nodes[i] = Node{
			ID:      i,
			Kind:    n.Kind.String(),
			Label:   n.Label,
			Ordinal: n.Ordinal,
			Slot:    n.Slot,
		}
		if len(n.Children) > 0 {
			out.Nodes[i].Children = make([]int, len(n.Children))
			for j, c := range n.Children {
				out.Nodes[i].Children[j] = int(c)
			}
		}
		for _, e := range n.Edges {
			out.Edges = append(out.Edges, Edge{From: e.From.String(), To: e.To.String(), List: e.List})
		}
	}
	return out
}
