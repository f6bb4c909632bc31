package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pgnode2graph/internal/config"
	"github.com/matzehuels/pgnode2graph/pkg/errors"
	"github.com/matzehuels/pgnode2graph/pkg/pipeline"
)

// convertOpts holds the command-line flags of the conversion command.
// Flags left unset fall back to the config file.
type convertOpts struct {
	color      bool   // color tables using the node color map
	colorMap   string // node color map file
	format     string // image format passed to the renderer
	dotDir     string // directory for .dot files
	imgDir     string // directory for images
	removeDots bool   // delete .dot files after rendering
	skipEmpty  bool   // omit rows whose value is empty
	renderer   string // auto, dot or builtin
}

// convertCommand creates the root command, which converts each FILE into a
// DOT file and an image.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   appName + " [flags] FILE...",
		Short: "Draw PostgreSQL node tree dumps as Graphviz graphs",
		Long: `pgnode2graph reads node trees printed by PostgreSQL (debug_print_parse,
debug_print_rewritten, debug_print_plan) and draws them with Graphviz.

For every FILE a DOT file FILE.dot and an image FILE.<format> are written
next to the input, or into --dot-directory and --img-directory.`,
		Example: `  pgnode2graph -c -T svg query.txt
  pgnode2graph -r -I images/ plans/*.txt`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runConvert(cmd.Context(), cfg, args)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.color, "color", "c", false, "color nodes using the node color map")
	f.StringVarP(&opts.colorMap, "node-color-map", "n", "", "node color map file (lines of: name, bgcolor[, fontcolor])")
	f.StringVarP(&opts.format, "format", "T", pipeline.DefaultFormat, "image format (any format dot -T accepts)")
	f.StringVarP(&opts.dotDir, "dot-directory", "D", "", "write .dot files into this directory")
	f.StringVarP(&opts.imgDir, "img-directory", "I", "", "write images into this directory")
	f.BoolVarP(&opts.removeDots, "remove-dots", "r", false, "remove .dot files after rendering")
	f.BoolVarP(&opts.skipEmpty, "skip-empty", "s", false, "omit fields with empty values")
	f.StringVar(&opts.renderer, "renderer", "auto", "renderer: auto, dot (Graphviz program) or builtin")
	cmd.MarkFlagFilename("node-color-map")
	cmd.MarkFlagDirname("dot-directory")
	cmd.MarkFlagDirname("img-directory")

	return cmd
}

// apply overrides cfg with every flag set on the command line.
func (o *convertOpts) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("color") {
		cfg.Color = o.color
	}
	if changed("node-color-map") {
		cfg.NodeColorMap = o.colorMap
	}
	if changed("format") {
		cfg.Format = o.format
	}
	if changed("dot-directory") {
		cfg.DotDirectory = o.dotDir
	}
	if changed("img-directory") {
		cfg.ImgDirectory = o.imgDir
	}
	if changed("remove-dots") {
		cfg.RemoveDots = o.removeDots
	}
	if changed("skip-empty") {
		cfg.SkipEmpty = o.skipEmpty
	}
	if changed("renderer") {
		cfg.Renderer = o.renderer
	}
}

// runConvert converts files one after another and prints a status line for
// each. It fails when any file failed.
func (c *CLI) runConvert(ctx context.Context, cfg config.Config, files []string) error {
	opts := cfg.PipelineOptions()
	opts.Logger = c.Logger
	// A broken color map file fails the run before any file is processed,
	// with or without --color.
	if cfg.Color || cfg.NodeColorMap != "" {
		colors, err := cfg.ColorMap(c.Logger)
		if err != nil {
			return err
		}
		opts.Colors = colors
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spin := newSpinner(os.Stderr, fmt.Sprintf("processing %q", files[0]))
	spin.Start()

	next := 1
	batch := runner.Batch(ctx, files, opts, func(f pipeline.FileResult) {
		spin.Suspend(func() { printFileStatus(c.Out, f) })
		switch {
		case f.Err == nil:
		case errors.IsInputError(f.Err):
			c.Logger.Error("invalid node tree dump", "file", f.Input, "err", errors.UserMessage(f.Err))
		default:
			c.Logger.Error("conversion failed", "file", f.Input, "err", errors.UserMessage(f.Err))
		}
		if next < len(files) {
			spin.SetMessage(fmt.Sprintf("processing %q", files[next]))
			next++
		}
	})
	spin.Stop()

	failed := batch.Failed()
	prog.done(fmt.Sprintf("Converted %d of %d files", len(files)-failed, len(files)))
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}
