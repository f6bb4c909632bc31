package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pgnode2graph/internal/config"
	"github.com/matzehuels/pgnode2graph/pkg/buildinfo"
	"github.com/matzehuels/pgnode2graph/pkg/cache"
	"github.com/matzehuels/pgnode2graph/pkg/pipeline"
	"github.com/matzehuels/pgnode2graph/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "pgnode2graph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives status lines and command output.
	Out io.Writer

	configPath string
	noCache    bool

	// renderer replaces the one selected by --renderer when set.
	renderer render.Renderer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself converts dump files.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.convertCommand()
	root.Version = buildinfo.Version
	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pgnode2graph/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "do not use the render cache")

	root.AddCommand(c.treeCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig reads the config file named by --config or the default one.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath, c.Logger)
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	r := c.renderer
	if r == nil {
		var err error
		if r, err = render.Select(ctx, cfg.Renderer, c.Logger); err != nil {
			return nil, err
		}
	}
	ch, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(r, ch, c.Logger)
	if cfg.Cache.TTL > 0 {
		runner.TTL = cfg.Cache.TTL
	}
	return runner, nil
}

// newCache returns the configured cache: Redis when an address is set,
// otherwise the file cache. A file cache that cannot be created is
// replaced by no cache at all.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisAddr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: os.Getenv("PGNODE2GRAPH_REDIS_PASSWORD"),
			DB:       cfg.Cache.RedisDB,
		})
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("render cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}
