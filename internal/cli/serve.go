package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pgnode2graph/internal/server"
	"github.com/matzehuels/pgnode2graph/pkg/observability"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		bodyLimit int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion HTTP API",
		Long: `Serve converts dumps posted over HTTP:

  POST /v1/dot             DOT text
  POST /v1/render?format=  rendered image
  POST /v1/tree            tree as JSON
  GET  /v1/stats           counters
  GET  /healthz            liveness

Add ?color or ?skip_empty to the conversion endpoints. Set --redis to share
rendered images between several instances.`,
		Example: `  pgnode2graph serve --addr :8080
  curl --data-binary @query.txt 'localhost:8080/v1/render?format=svg&color' > query.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("redis") {
				cfg.Cache.RedisAddr = redisAddr
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			colors, err := cfg.ColorMap(c.Logger)
			if err != nil {
				return err
			}

			counters := observability.NewCounters()
			observability.SetPipelineHooks(counters)
			observability.SetCacheHooks(counters)
			observability.SetHTTPHooks(counters)
			defer observability.Reset()

			printKeyValue(c.Out, "address", cfg.Server.Addr)
			printKeyValue(c.Out, "renderer", runner.Renderer.Name())
			printKeyValue(c.Out, "cache", cacheDescription(c.noCache, cfg.Cache.Disabled, cfg.Cache.RedisAddr))

			srv := server.New(runner, counters, c.Logger, server.Config{
				Colors:    colors,
				BodyLimit: bodyLimit,
			})
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address or redis:// URL for the render cache")
	cmd.Flags().Int64Var(&bodyLimit, "max-body", 8<<20, "maximum request body size in bytes")

	return cmd
}

func cacheDescription(noCache, disabled bool, redisAddr string) string {
	switch {
	case noCache || disabled:
		return "off"
	case redisAddr != "":
		// redis:// URLs may carry a password
		if i := strings.LastIndex(redisAddr, "@"); i >= 0 {
			return "redis " + redisAddr[i+1:]
		}
		return "redis " + redisAddr
	default:
		return "file"
	}
}
