// Package config loads pgnode2graph settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/pgnode2graph/config.toml (or
// ~/.config/pgnode2graph/config.toml) unless --config names another one.
// Command-line flags that are set explicitly override values from the file.
//
//	color = true
//	format = "svg"
//	renderer = "dot"
//
//	[colors.SEQSCAN]
//	background = "khaki"
//	font = "black"
//
//	[cache]
//	redis_addr = "localhost:6379"
//	ttl = "24h"
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/pgnode2graph/pkg/cache"
	"github.com/matzehuels/pgnode2graph/pkg/colormap"
	"github.com/matzehuels/pgnode2graph/pkg/errors"
	"github.com/matzehuels/pgnode2graph/pkg/pipeline"
	"github.com/matzehuels/pgnode2graph/pkg/render"
)

const (
	appName  = "pgnode2graph"
	fileName = "config.toml"

	// DefaultAddr is the listen address of the HTTP API.
	DefaultAddr = ":8080"
)

// Config mirrors the command-line flags plus settings that only make sense
// in a file.
type Config struct {
	Color        bool   `toml:"color"`
	SkipEmpty    bool   `toml:"skip_empty"`
	Format       string `toml:"format"`
	DotDirectory string `toml:"dot_directory"`
	ImgDirectory string `toml:"img_directory"`
	RemoveDots   bool   `toml:"remove_dots"`
	Renderer     string `toml:"renderer"`
	NodeColorMap string `toml:"node_color_map"`

	// Colors are layered over the node color map.
	Colors map[string]colormap.Entry `toml:"colors"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Disabled  bool          `toml:"disabled"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	TTL       time.Duration `toml:"ttl"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Format:   pipeline.DefaultFormat,
		Renderer: render.NameAuto,
		Cache:    CacheConfig{TTL: cache.DefaultTTL},
		Server:   ServerConfig{Addr: DefaultAddr},
	}
}

// DefaultPath returns the config file location following the XDG standard.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the file at path over the defaults. An empty path means the
// default location, which may be missing; an explicit path must exist.
func Load(path string, logger *log.Logger) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeIO, err, "config file %s", path)
	}
	if err := Decode(string(data), &cfg, logger); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
	}
	if logger != nil {
		logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// Decode parses TOML text into cfg and validates the result. Keys that do
// not map to a setting are logged and ignored.
func Decode(text string, cfg *Config, logger *log.Logger) error {
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 && logger != nil {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		logger.Warn("unknown config keys", "keys", strings.Join(keys, ", "))
	}
	return cfg.Validate()
}

// Validate checks values that would otherwise fail late in the pipeline.
func (c *Config) Validate() error {
	if c.Format != "" {
		if err := errors.ValidateFormat(c.Format); err != nil {
			return err
		}
	}
	switch c.Renderer {
	case "", render.NameAuto, render.NameDot, render.NameBuiltin:
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"unknown renderer %q (want %s, %s or %s)", c.Renderer, render.NameAuto, render.NameDot, render.NameBuiltin)
	}
	if _, err := colormap.FromConfig(c.Colors); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	return nil
}

// ColorMap builds the color map for Color mode: the node color map file
// (or the built-in map) with the [colors] table layered on top.
func (c *Config) ColorMap(logger *log.Logger) (colormap.Map, error) {
	base := colormap.Default()
	if c.NodeColorMap != "" {
		m, err := colormap.Load(c.NodeColorMap, logger)
		if err != nil {
			return nil, err
		}
		base = m
	}
	extra, err := colormap.FromConfig(c.Colors)
	if err != nil {
		return nil, err
	}
	return colormap.Merge(base, extra), nil
}

// PipelineOptions converts the settings into conversion options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Color:      c.Color,
		SkipEmpty:  c.SkipEmpty,
		Format:     c.Format,
		DotDir:     c.DotDirectory,
		ImgDir:     c.ImgDirectory,
		RemoveDots: c.RemoveDots,
	}
}

// CacheDir returns the file cache directory: the configured one or
// $XDG_CACHE_HOME/pgnode2graph.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
