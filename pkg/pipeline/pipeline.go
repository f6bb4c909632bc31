// Package pipeline converts node tree dump files into DOT files and images.
//
// This package implements the read → parse → serialize → render pipeline used
// by the CLI and the HTTP API, so both behave the same way.
//
// # Stages
//
//  1. Parse: rebuild the node tree from the dump ([nodetree.Parse])
//  2. Serialize: write the tree as DOT text ([dot.Write])
//  3. Render: turn the DOT text into an image with a [render.Renderer],
//     consulting the artifact cache first
//
// # Usage
//
//	runner := pipeline.NewRunner(renderer, cache, logger)
//	opts := pipeline.Options{Format: "svg", Color: true, RemoveDots: true}
//	res, err := runner.Convert(ctx, "query.txt", opts)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.ImagePath) // query.txt.svg
//
// Convert many files; a failing file does not stop the others:
//
//	batch := runner.Batch(ctx, files, opts, func(f pipeline.FileResult) {
//	    fmt.Printf("processing %q ... %v\n", f.Input, f.Err == nil)
//	})
//	if batch.Failed() > 0 {
//	    os.Exit(1)
//	}
package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pgnode2graph/pkg/colormap"
	"github.com/matzehuels/pgnode2graph/pkg/dot"
	"github.com/matzehuels/pgnode2graph/pkg/errors"
	"github.com/matzehuels/pgnode2graph/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFormat is the image format written when none is requested.
	DefaultFormat = render.DefaultFormat

	// DotSuffix is appended to the input name to form the DOT file name.
	DotSuffix = ".dot"
)

// =============================================================================
// Options
// =============================================================================

// Options configures one conversion. It supports JSON for API requests.
type Options struct {
	// Serialize options
	Color     bool `json:"color,omitempty"`
	SkipEmpty bool `json:"skip_empty,omitempty"`

	// Output options
	Format     string `json:"format,omitempty"`
	DotDir     string `json:"dot_directory,omitempty"`
	ImgDir     string `json:"img_directory,omitempty"`
	RemoveDots bool   `json:"remove_dots,omitempty"`

	// Runtime options (not serialized)
	Colors colormap.Resolver `json:"-"`
	Logger *log.Logger       `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if err := errors.ValidateFormat(o.Format); err != nil {
		return err
	}
	for _, dir := range []string{o.DotDir, o.ImgDir} {
		if dir == "" {
			continue
		}
		if err := validateDir(dir); err != nil {
			return err
		}
	}
	if o.Color && o.Colors == nil {
		o.Colors = colormap.Default()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func validateDir(dir string) error {
	if err := errors.ValidatePath(dir); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "output directory %s", dir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}
	return nil
}

// DotOptions returns the serializer options.
func (o *Options) DotOptions() dot.Options {
	return dot.Options{
		Color:     o.Color,
		Colors:    o.Colors,
		SkipEmpty: o.SkipEmpty,
	}
}

// DotPath returns where the DOT file for input is written.
func (o *Options) DotPath(input string) string {
	return outputPath(input, o.DotDir, DotSuffix)
}

// ImagePath returns where the image for input is written.
func (o *Options) ImagePath(input string) string {
	format := o.Format
	if format == "" {
		format = DefaultFormat
	}
	return outputPath(input, o.ImgDir, "."+format)
}

// outputPath appends suffix to input, placing the file in dir when given.
// The input's own extension is kept: "q.txt" becomes "q.txt.dot".
func outputPath(input, dir, suffix string) string {
	if dir == "" {
		return input + suffix
	}
	return filepath.Join(dir, filepath.Base(input)+suffix)
}

// =============================================================================
// Results
// =============================================================================

// Result describes one converted file.
type Result struct {
	Input     string
	DotPath   string // empty once removed
	ImagePath string
	Stats     Stats
	CacheHit  bool // the image came from the cache
}

// Stats contains timing and size information for one conversion.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Depth      int
	DotBytes   int
	ImageBytes int
	ParseTime  time.Duration
	RenderTime time.Duration
}
