package cmd

import (
	"fmt"

	mcpserver "github.com/lukman83/buysmart/mcp"
	"github.com/spf13/cobra"
)

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Start MCP HTTP server",
	Long:  "Start the MCP server over HTTP for remote access. /metrics and /healthz are served alongside /mcp.",
	RunE:  runServeHTTP,
}

func init() {
	serveHTTPCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	rootCmd.AddCommand(serveHTTPCmd)
}

func runServeHTTP(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}

	addr := fmt.Sprintf(":%s", port)
	fmt.Fprintf(cmd.ErrOrStderr(), "BuySmart MCP HTTP server listening on %s\n", addr)
	return mcpserver.ServeHTTP(a, addr, cfg.APIKey)
}
