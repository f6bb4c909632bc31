package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pgnode2graph/pkg/colormap"
	"github.com/matzehuels/pgnode2graph/pkg/errors"
)

func TestDecode(t *testing.T) {
	text := `
color = true
skip_empty = true
format = "svg"
dot_directory = "out/dot"
renderer = "builtin"

[colors.SEQSCAN]
background = "khaki"
font = "black"

[cache]
redis_addr = "localhost:6379"
ttl = "36h"

[server]
addr = "127.0.0.1:9000"
`
	cfg := Default()
	require.NoError(t, Decode(text, &cfg, nil))

	assert.True(t, cfg.Color)
	assert.True(t, cfg.SkipEmpty)
	assert.Equal(t, "svg", cfg.Format)
	assert.Equal(t, "out/dot", cfg.DotDirectory)
	assert.Equal(t, "builtin", cfg.Renderer)
	assert.Equal(t, colormap.Entry{Background: "khaki", Font: "black"}, cfg.Colors["SEQSCAN"])
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 36*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestDecodeKeepsDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(`color = true`, &cfg, nil))
	assert.Equal(t, "png", cfg.Format)
	assert.Equal(t, "auto", cfg.Renderer)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
}

func TestDecodeWarnsUnknownKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{})

	cfg := Default()
	require.NoError(t, Decode("colour = true\n[cache]\nredis = \"x\"\n", &cfg, logger))
	assert.Contains(t, buf.String(), "unknown config keys")
	assert.Contains(t, buf.String(), "cache.redis")
	assert.Contains(t, buf.String(), "colour")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		code errors.Code
	}{
		{"bad format", `format = "png;rm"`, errors.ErrCodeInvalidFormat},
		{"bad renderer", `renderer = "neato"`, errors.ErrCodeInvalidConfig},
		{"bad color", "[colors.QUERY]\nbackground = \"sky blue\"", errors.ErrCodeInvalidConfig},
		{"negative ttl", "[cache]\nttl = \"-1h\"", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Decode(tt.text, &cfg, nil)
			if !errors.Is(err, tt.code) {
				t.Errorf("Decode() error = %v, want %s", err, tt.code)
			}
		})
	}

	cfg := Default()
	assert.Error(t, Decode("color = ", &cfg, nil), "syntax errors are reported")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load("", nil)
	require.NoError(t, err, "a missing default file is not an error")
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(dir, "missing.toml"), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)

	path := filepath.Join(dir, appName, fileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("format = \"svg\"\n"), 0644))

	cfg, err = Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "svg", cfg.Format)

	require.NoError(t, os.WriteFile(path, []byte("renderer = \"neato\"\n"), 0644))
	_, err = Load(path, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/etc/xdg", "pgnode2graph", "config.toml"), p)
}

func TestColorMap(t *testing.T) {
	dir := t.TempDir()
	mapFile := filepath.Join(dir, "colors.txt")
	require.NoError(t, os.WriteFile(mapFile, []byte("QUERY, gold\nSORT, grey, white\n"), 0644))

	cfg := Config{
		NodeColorMap: mapFile,
		Colors:       map[string]colormap.Entry{"SORT": {Background: "red"}},
	}
	m, err := cfg.ColorMap(nil)
	require.NoError(t, err)

	assert.Equal(t, colormap.Colors{Border: "gold", Background: "gold"}, m["QUERY"])
	assert.Equal(t, "red", m["SORT"].Background, "config entries override the file")
	_, ok := m["PLANNEDSTMT"]
	assert.False(t, ok, "a map file replaces the built-in map")

	cfg = Config{}
	m, err = cfg.ColorMap(nil)
	require.NoError(t, err)
	assert.Equal(t, colormap.Default(), m)

	cfg = Config{NodeColorMap: filepath.Join(dir, "missing.txt")}
	_, err = cfg.ColorMap(nil)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestPipelineOptions(t *testing.T) {
	cfg := Config{Color: true, Format: "svg", DotDirectory: "d", ImgDirectory: "i", RemoveDots: true}
	opts := cfg.PipelineOptions()
	assert.True(t, opts.Color)
	assert.True(t, opts.RemoveDots)
	assert.Equal(t, "svg", opts.Format)
	assert.Equal(t, "d", opts.DotDir)
	assert.Equal(t, "i", opts.ImgDir)
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	cfg := Default()
	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-cache", "pgnode2graph"), dir)

	cfg.Cache.Dir = "/srv/cache"
	dir, _ = cfg.CacheDir()
	assert.Equal(t, "/srv/cache", dir)
}
