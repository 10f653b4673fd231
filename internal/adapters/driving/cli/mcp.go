package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions about your email and add new messages.

Tools:      ask, ingest_email
Resources:  mailrag://categories, mailrag://emails/{emailId}

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead, for MCP Inspector or remote clients.

Examples:
  mailrag mcp serve
  mailrag mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "mailrag": {
        "command": "/path/to/mailrag",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if err := ensureServices(cmd); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Chat:       chatService,
		Emails:     emailService,
		Categories: categoryService,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
