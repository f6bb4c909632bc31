package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pgnode2graph/pkg/cache"
	"github.com/matzehuels/pgnode2graph/pkg/dot"
	"github.com/matzehuels/pgnode2graph/pkg/errors"
	"github.com/matzehuels/pgnode2graph/pkg/nodetree"
	"github.com/matzehuels/pgnode2graph/pkg/observability"
	"github.com/matzehuels/pgnode2graph/pkg/render"
)

// Runner executes conversions with a renderer and an artifact cache.
// Both the CLI and the API use it.
//
// A Runner holds no per-conversion state; multiple goroutines can use the
// same Runner with different options.
type Runner struct {
	Renderer render.Renderer
	Cache    cache.Cache
	Logger   *log.Logger
	// TTL is how long rendered images stay cached.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching and a nil
// renderer selects the built-in one.
func NewRunner(r render.Renderer, c cache.Cache, logger *log.Logger) *Runner {
	if r == nil {
		r = render.NewGraphviz()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Renderer: r,
		Cache:    c,
		Logger:   logger,
		TTL:      cache.DefaultTTL,
	}
}

// Parse reads one node tree from src. name identifies the source in logs
// and hooks.
func (r *Runner) Parse(ctx context.Context, name string, src io.Reader) (*nodetree.Tree, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, name)
	start := time.Now()

	tree, err := nodetree.Parse(src, nodetree.WithLogger(r.Logger.With("source", name)))

	nodes := 0
	if tree != nil {
		nodes = tree.Len()
	}
	hooks.OnParseComplete(ctx, name, nodes, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.Logger.Debug("parsed node tree",
		"source", name,
		"nodes", tree.Len(),
		"edges", tree.EdgeCount(),
		"duration", time.Since(start))
	return tree, nil
}

// Serialize returns the DOT text for tree.
func (r *Runner) Serialize(tree *nodetree.Tree, opts Options) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	data, err := dot.Marshal(tree, opts.DotOptions())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "write DOT")
	}
	return data, nil
}

// RenderWithCacheInfo renders DOT text, serving repeated requests from the
// cache, and reports whether the cache was hit.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, dotText []byte, format string) ([]byte, bool, error) {
	key := cache.ArtifactKey(dotText, r.Renderer.Name(), format)

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, true, nil
	} else if err != nil {
		r.Logger.Warn("cache lookup failed", "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, r.Renderer.Name(), format)
	start := time.Now()
	data, err := r.Renderer.Render(ctx, dotText, format)
	hooks.OnRenderComplete(ctx, r.Renderer.Name(), format, len(data), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache store failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

// Render is RenderWithCacheInfo without the cache information.
func (r *Runner) Render(ctx context.Context, dotText []byte, format string) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, dotText, format)
	return data, err
}

// Convert runs the whole pipeline for one input file: the DOT file is
// written next to the input (or into opts.DotDir), rendered, and the image is
// written next to the input (or into opts.ImgDir). With RemoveDots the DOT
// file is removed afterwards whether rendering succeeded or not.
func (r *Runner) Convert(ctx context.Context, input string, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := render.CheckFormat(r.Renderer, opts.Format); err != nil {
		return nil, err
	}
	res := &Result{Input: input}

	f, err := os.Open(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "could not open %s", input)
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "could not open %s", input)
	}
	start := time.Now()
	tree, err := r.Parse(ctx, input, f)
	f.Close()
	if err != nil {
		return nil, err
	}
	res.Stats.ParseTime = time.Since(start)
	res.Stats.NodeCount = tree.Len()
	res.Stats.EdgeCount = tree.EdgeCount()
	res.Stats.Depth = tree.Depth()

	dotText, err := r.Serialize(tree, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.DotBytes = len(dotText)

	res.DotPath = opts.DotPath(input)
	if err := os.WriteFile(res.DotPath, dotText, 0644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "could not write %s", res.DotPath)
	}
	if opts.RemoveDots {
		defer func() {
			if err := os.Remove(res.DotPath); err != nil && !os.IsNotExist(err) {
				r.Logger.Warn("could not remove DOT file", "path", res.DotPath, "err", err)
			}
			res.DotPath = ""
		}()
	}

	start = time.Now()
	img, hit, err := r.RenderWithCacheInfo(ctx, dotText, opts.Format)
	if err != nil {
		return nil, err
	}
	res.Stats.RenderTime = time.Since(start)
	res.Stats.ImageBytes = len(img)
	res.CacheHit = hit

	res.ImagePath = opts.ImagePath(input)
	if err := writeFile(res.ImagePath, img); err != nil {
		return nil, err
	}

	r.Logger.Debug("converted",
		"input", input,
		"image", res.ImagePath,
		"nodes", res.Stats.NodeCount,
		"cached", hit,
		"duration", res.Stats.ParseTime+res.Stats.RenderTime)
	return res, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "could not write %s", path)
	}
	return nil
}

// FileResult is the outcome of one file in a batch.
type FileResult struct {
	Input  string
	Result *Result // nil when Err is set
	Err    error
}

// BatchResult collects the outcome of every file in a batch, in input order.
type BatchResult struct {
	Files []FileResult
}

// Failed returns the number of files that could not be converted.
func (b *BatchResult) Failed() int {
	n := 0
	for _, f := range b.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Batch converts inputs one after another. A failure is recorded and the
// next file is processed; cancellation of ctx stops the batch and marks
// the remaining files as failed. report, if not nil, is called after each
// file.
func (r *Runner) Batch(ctx context.Context, inputs []string, opts Options, report func(FileResult)) *BatchResult {
	out := &BatchResult{Files: make([]FileResult, 0, len(inputs))}
	for _, input := range inputs {
		var fr FileResult
		if err := ctx.Err(); err != nil {
			fr = FileResult{Input: input, Err: err}
		} else {
			res, err := r.Convert(ctx, input, opts)
			fr = FileResult{Input: input, Result: res, Err: err}
		}
		if fr.Err != nil {
			r.Logger.Debug("conversion failed", "input", input, "err", errors.UserMessage(fr.Err))
		}
		out.Files = append(out.Files, fr)
		if report != nil {
			report(fr)
		}
	}
	return out
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// ConvertBytes parses a dump held in memory and returns its DOT text and,
// when format is not empty, the rendered image.
func (r *Runner) ConvertBytes(ctx context.Context, name string, dump []byte, format string, opts Options) (dotText, image []byte, err error) {
	if format != "" {
		if err := errors.ValidateFormat(format); err != nil {
			return nil, nil, err
		}
		if err := render.CheckFormat(r.Renderer, format); err != nil {
			return nil, nil, err
		}
	}
	tree, err := r.Parse(ctx, name, bytes.NewReader(dump))
	if err != nil {
		return nil, nil, err
	}
	dotText, err = r.Serialize(tree, opts)
	if err != nil {
		return nil, nil, err
	}
	if format == "" {
		return dotText, nil, nil
	}
	image, err = r.Render(ctx, dotText, format)
	if err != nil {
		return nil, nil, err
	}
	return dotText, image, nil
}
