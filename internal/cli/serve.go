package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/depchase/depchase/internal/api"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var eo engineOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

Exposes the analysis engine over JSON endpoints under /api. The server
shuts down gracefully on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, host, err := c.newEngine(cmd.Context(), eo)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}

			if addr == "" {
				addr = api.FromEnv().Addr
			}

			c.Logger.Info("starting server", "addr", addr)
			return api.NewServer(eng, host, c.Logger).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080, or DEPCHASE_ADDR)")
	eo.register(cmd)

	return cmd
}
