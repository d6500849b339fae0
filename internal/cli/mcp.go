package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/depchase/depchase/internal/mcpserver"
)

// mcpCommand creates the mcp command for serving the engine over the
// Model Context Protocol on stdio.
func (c *CLI) mcpCommand() *cobra.Command {
	var eo engineOptions

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Long: `Run the MCP server on stdio.

Exposes analyze_dependencies, trace_symbol, build_dependency_chain,
get_file_content, and search_code as MCP tools for use by AI assistants.
Logs go to stderr; stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, host, err := c.newEngine(cmd.Context(), eo)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}
			return mcpserver.New(eng, host).Serve(cmd.Context())
		},
	}

	eo.register(cmd)

	return cmd
}
