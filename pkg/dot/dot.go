// Package dot serializes a parsed node tree as a Graphviz DOT graph.
//
// Every structural node becomes an HTML-like table: a bold header
// cell holding the node name (port f0) followed by one row per field (port
// f1, f2, ...). Fields whose value is another node, or a list of nodes, are
// linked to the header cell of that node's table. The output is written in
// two breadth-first passes, all tables first and then all edges, so the
// result is stable for a given tree:
//
//	tree, err := nodetree.ParseString(dump)
//	if err != nil {
//	    return err
//	}
//	return dot.Write(os.Stdout, tree, dot.Options{Color: true})
package dot

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/pgnode2graph/pkg/colormap"
	"github.com/matzehuels/pgnode2graph/pkg/nodetree"
)

// DefaultGraphName is the name of the generated digraph.
const DefaultGraphName = "PGNodeGraph"

// EmptyMarker is how a NULL pointer field value appears in a label.
const EmptyMarker = "--"

// Options configures serialization.
type Options struct {
	// Color enables table and edge coloring.
	Color bool
	// Colors resolves table colors by node name when Color is set.
	// Defaults to [colormap.Default].
	Colors colormap.Resolver
	// SkipEmpty omits field rows whose value is a NULL pointer.
	SkipEmpty bool
	// GraphName overrides [DefaultGraphName].
	GraphName string
}

func (o Options) withDefaults() Options {
	if o.GraphName == "" {
		o.GraphName = DefaultGraphName
	}
	if o.Color && o.Colors == nil {
		o.Colors = colormap.Default()
	}
	return o
}

// Marshal returns the DOT text for t.
func Marshal(t *nodetree.Tree, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes the DOT text for t to w. The tree is not modified.
func Write(w io.Writer, t *nodetree.Tree, opts Options) error {
	opts = opts.withDefaults()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "digraph %s {\n", opts.GraphName)
	bw.WriteString("node [shape=none];\n")
	bw.WriteString("rankdir=LR;\n")
	bw.WriteString("size=\"100000,100000\";\n")

	if t.Len() > 0 {
		writeTables(bw, t, opts)
		writeEdges(bw, t, opts)
	}

	bw.WriteString("}\n")
	return bw.Flush()
}

// writeTables emits one table per structural node and per item with
// fields, skipping list and suppressed nodes, whose rows live in the table
// of their owner. A suppressed field keeps its row so the edge to the nested
// node has a port to start from.
func writeTables(bw *bufio.Writer, t *nodetree.Tree, opts Options) {
	queue := []nodetree.NodeID{t.Root()}
	for len(queue) > 0 {
		n := t.Node(queue[0])
		queue = queue[1:]

		var rows strings.Builder
		for _, cid := range n.Children {
			c := t.Node(cid)
			// A structural node without fields still gets a header-only table.
			if !c.IsLeaf() || c.Kind == nodetree.Structural {
				queue = append(queue, cid)
			}
			if opts.SkipEmpty && strings.Contains(c.Label, EmptyMarker) {
				continue
			}
			label := c.Label
			if strings.Contains(label, "colnames") {
				label = formatColnames(label)
			}
			fmt.Fprintf(&rows, "    <tr><td port=\"f%d\" border=\"1\">%s</td></tr>\n", c.Slot, label)
		}

		if !n.Kind.Visible() {
			continue
		}
		writeHeader(bw, n, opts)
		bw.WriteString(rows.String())
		bw.WriteString("  </table>>\n];\n")
	}
}

func writeHeader(bw *bufio.Writer, n *nodetree.Node, opts Options) {
	var border, bg, font string
	if opts.Color {
		if c, ok := opts.Colors.Lookup(n.Label); ok {
			if c.Border != "" {
				border = fmt.Sprintf(" color=\"%s\"", c.Border)
			}
			if c.Background != "" {
				bg = fmt.Sprintf(" bgcolor=\"%s\"", c.Background)
			}
			if c.Font != "" {
				font = fmt.Sprintf(" color=\"%s\"", c.Font)
			}
		}
	}

	fmt.Fprintf(bw, "node_%d [\n", n.Ordinal)
	fmt.Fprintf(bw, "  label=<<table border=\"0\" cellspacing=\"0\"%s>\n", border)
	bw.WriteString("    <tr>\n")
	fmt.Fprintf(bw, "      <td port=\"f0\" border=\"1\"%s>\n", bg)
	fmt.Fprintf(bw, "       <B><font%s>%s</font></B>\n", font, n.Label)
	bw.WriteString("      </td>\n")
	bw.WriteString("    </tr>\n")
}

func writeEdges(bw *bufio.Writer, t *nodetree.Tree, opts Options) {
	queue := []nodetree.NodeID{t.Root()}
	for len(queue) > 0 {
		n := t.Node(queue[0])
		queue = queue[1:]
		queue = append(queue, n.Children...)

		for _, e := range n.Edges {
			bw.WriteString(FormatEdge(e, opts.Color))
			bw.WriteByte('\n')
		}
	}
}

// FormatEdge returns the DOT statement for e, e.g.
// "node_0:f1 -> node_2:f0 [color=blue];".
func FormatEdge(e nodetree.Edge, color bool) string {
	attr := ""
	if color {
		if e.List {
			attr = " [color=blue]"
		} else {
			attr = " [color=green]"
		}
	}
	return fmt.Sprintf("%s -> %s%s;", e.From, e.To, attr)
}
