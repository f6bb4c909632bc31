// Package render turns DOT text into images.
//
// # Overview
//
// A [Renderer] takes a complete DOT graph and an output format name and
// returns the encoded image. Two implementations are provided:
//
//   - [Exec]: runs the Graphviz "dot" program ("dot -T<format>"), so every
//     format the local Graphviz installation supports is available
//   - [Graphviz]: renders in-process with github.com/goccy/go-graphviz, which
//     needs no external program but supports only svg, png, jpg and dot
//
// # Selecting a Renderer
//
// [Select] maps a renderer name from the command line or config file to an
// implementation. "auto" prefers the external program when [CheckDot]
// confirms a Graphviz "dot" is on PATH and falls back to the built-in one:
//
//	r, err := render.Select(ctx, "auto", logger)
//	if err != nil {
//	    return err
//	}
//	png, err := r.Render(ctx, dotText, "png")
//
// # Errors
//
// Failures are *errors.Error values: RENDERER_NOT_FOUND when no "dot"
// program exists, RENDERER_INCOMPATIBLE when "dot -V" does not identify
// Graphviz, UNSUPPORTED for formats the built-in renderer cannot produce and
// RENDER_FAILED for everything else, including the program's stderr.
package render
