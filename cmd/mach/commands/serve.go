package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mach/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Serve the upload form, rendered result pages and the JSON API.

Routes:
  GET  /               upload form
  GET  /health         liveness and version
  GET  /presets        visualization presets
  POST /visualize      HTML result page
  POST /api/visualize  JSON result (?format=msgpack for MessagePack)
  POST /api/analyze    JSON analysis report

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Address = addr
			}
			if workers > 0 {
				a.cfg.Server.Workers = workers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(a.cfg, a.presets).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from MACH_ADDR)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent pipeline runs (default from MACH_WORKERS)")
	return cmd
}
