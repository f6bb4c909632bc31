package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Counters implements every hook interface with in-memory totals.
// It is safe for concurrent use.
type Counters struct {
	parses       atomic.Int64
	parseErrors  atomic.Int64
	nodes        atomic.Int64
	renders      atomic.Int64
	renderErrors atomic.Int64
	renderNanos  atomic.Int64
	bytesOut     atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	requests     atomic.Int64
	serverErrors atomic.Int64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Stats is a point-in-time copy of Counters.
type Stats struct {
	Parses        int64   `json:"parses"`
	ParseErrors   int64   `json:"parse_errors"`
	Nodes         int64   `json:"nodes"`
	Renders       int64   `json:"renders"`
	RenderErrors  int64   `json:"render_errors"`
	RenderSeconds float64 `json:"render_seconds"`
	BytesRendered int64   `json:"bytes_rendered"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	Requests      int64   `json:"requests"`
	ServerErrors  int64   `json:"server_errors"`
}

// Snapshot returns the current totals.
func (c *Counters) Snapshot() Stats {
	return Stats{
		Parses:        c.parses.Load(),
		ParseErrors:   c.parseErrors.Load(),
		Nodes:         c.nodes.Load(),
		Renders:       c.renders.Load(),
		RenderErrors:  c.renderErrors.Load(),
		RenderSeconds: time.Duration(c.renderNanos.Load()).Seconds(),
		BytesRendered: c.bytesOut.Load(),
		CacheHits:     c.cacheHits.Load(),
		CacheMisses:   c.cacheMisses.Load(),
		Requests:      c.requests.Load(),
		ServerErrors:  c.serverErrors.Load(),
	}
}

func (c *Counters) OnParseStart(context.Context, string) {}

func (c *Counters) OnParseComplete(_ context.Context, _ string, nodeCount int, _ time.Duration, err error) {
	c.parses.Add(1)
	if err != nil {
		c.parseErrors.Add(1)
		return
	}
	c.nodes.Add(int64(nodeCount))
}

func (c *Counters) OnRenderStart(context.Context, string, string) {}

func (c *Counters) OnRenderComplete(_ context.Context, _, _ string, size int, d time.Duration, err error) {
	c.renders.Add(1)
	c.renderNanos.Add(int64(d))
	if err != nil {
		c.renderErrors.Add(1)
		return
	}
	c.bytesOut.Add(int64(size))
}

func (c *Counters) OnCacheHit(context.Context, string)      { c.cacheHits.Add(1) }
func (c *Counters) OnCacheMiss(context.Context, string)     { c.cacheMisses.Add(1) }
func (c *Counters) OnCacheSet(context.Context, string, int) {}

func (c *Counters) OnRequest(context.Context, string, string) { c.requests.Add(1) }

func (c *Counters) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	if status >= 500 {
		c.serverErrors.Add(1)
	}
}

var (
	_ PipelineHooks = (*Counters)(nil)
	_ CacheHooks    = (*Counters)(nil)
	_ HTTPHooks     = (*Counters)(nil)
)
