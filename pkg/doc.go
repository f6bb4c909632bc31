// Package pkg provides the libraries behind pgnode2graph.
//
// # Overview
//
// PostgreSQL prints its internal node trees (query trees, rewritten trees
// and plans) as nested text when debug_print_parse, debug_print_rewritten or
// debug_print_plan is on. pgnode2graph rebuilds those trees and draws them
// with Graphviz. The pkg directory is organized as follows:
//
//  1. [nodetree] - Dump parser and the parsed tree
//  2. [dot] - DOT serializer for parsed trees
//  3. [colormap] - Node name to color mapping for colored output
//  4. [render] - Graphviz renderers (dot program or built-in)
//  5. [pipeline] - Orchestration (parse → serialize → render)
//  6. [graph] - JSON form of parsed trees
//
// Supporting packages: [cache] (rendered image cache on disk or in Redis),
// [errors] (coded errors), [httputil] (API responses), [observability]
// (hooks and counters) and [buildinfo].
//
// # Architecture
//
//	Node tree dump
//	      ↓
//	 [nodetree] package (parse into an arena of nodes)
//	      ↓
//	 [dot] package (tables and edges as DOT text)
//	      ↓
//	 [render] package (dot -T<format> or go-graphviz)
//	      ↓
//	PNG/SVG/PDF/... output
//
// # Quick Start
//
//	tree, err := nodetree.Parse(f)
//	if err != nil {
//	    return err
//	}
//	text, err := dot.Marshal(tree, dot.Options{Color: true})
//	if err != nil {
//	    return err
//	}
//	img, err := render.NewGraphviz().Render(ctx, text, "svg")
//
// Most callers use [pipeline.Runner], which adds output file naming, caching
// and batch processing on top of these steps.
package pkg
