// Package nodetree parses PostgreSQL node tree dumps into an arena-backed tree.
//
// # Overview
//
// PostgreSQL prints its internal parse, rewrite and plan trees (for example
// with debug_print_parse or pprint) in a bracketed text form:
//
//	{QUERY
//	   :commandType 1
//	   :targetList (
//	      {TARGETENTRY
//	      :expr
//	         {CONST :consttype 23 :constvalue 4 [ 1 0 0 0 0 0 0 0 ]}
//	      :resno 1
//	      }
//	   )
//	}
//
// A "{" opens a structural node whose first word is its name, ":" starts a
// scalar field, and a "(" directly followed by "{" turns the field before it
// into a list of structural nodes. This package rebuilds the tree from that
// character stream and records, for every parent, the edges the graph
// serializer in package dot later writes out.
//
// # Basic Usage
//
//	f, err := os.Open("query.txt")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	tree, err := nodetree.Parse(f)
//	if err != nil {
//	    return err // *errors.Error with code and line/column
//	}
//	root := tree.Node(tree.Root())
//	fmt.Println(root.Label) // "QUERY"
//
// # Node Kinds
//
// Every node carries a [Kind]:
//
//   - [Structural]: a "{NAME ...}" node; rendered as its own table
//   - [Item]: a ":field value" entry; rendered as a row of its parent
//   - [List]: an item that turned out to head a "( {..} {..} )" list; it
//     borrows its parent's ordinal and chains its elements to each other
//   - [Suppressed]: an item whose value is a single structural node; its edge
//     starts at the parent's row and it gets no table of its own
//
// The last two kinds are assigned retroactively: the parser only learns what
// a field is once the next delimiter after it has been read.
//
// # Addressing
//
// Each Structural and Item node receives an ordinal from a per-parse counter
// in creation order, and each attached node receives a 1-based slot in its
// parent. Together they form a [Port], the "node_<ordinal>:f<slot>" address
// used in the generated DOT. Slot 0 is the header cell of a node table.
//
// # Parsing Model
//
// The parser is a state machine driven by single bytes with an explicit
// stack of open scopes, so nesting depth is bounded only by memory. Nodes
// live in a slice owned by the [Tree] and are referenced by [NodeID]; nothing
// is ever detached, so the result is acyclic by construction.
//
// # Errors
//
// Errors returned by [Parse] are *errors.Error values from package
// github.com/matzehuels/pgnode2graph/pkg/errors:
//
//   - INVALID_INPUT: the input contains no node tree at all
//   - UNBALANCED_INPUT: the input ended with open "{" or "(" scopes
//   - MALFORMED_INPUT: a delimiter appeared where the tree structure does not
//     allow it (stray ")", ":" outside any node, "(" without a field)
//
// Parse errors carry the line and column of the offending byte. Parsing stops
// at the first error and no partial tree is returned.
package nodetree
