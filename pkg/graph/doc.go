// Package graph defines the JSON form of a parsed node tree.
//
// The HTTP API returns it from POST /v1/tree and the tree command prints it
// with --json. Nodes are listed in ID order, which is also the order they
// were read from the dump:
//
//	{
//	  "root": 0,
//	  "nodes": [
//	    {"id": 0, "kind": "structural", "label": "QUERY", "ordinal": 0, "children": [1, 2]},
//	    {"id": 1, "kind": "item", "label": "commandType 1", "ordinal": 1, "slot": 1}
//	  ],
//	  "edges": [{"from": "node_0:f2", "to": "node_3:f0"}]
//	}
//
// Edges are the connections drawn between tables in the DOT output.
package graph
