package cmd

import (
	"fmt"

	mcpserver "github.com/lukman83/buysmart/mcp"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting BuySmart MCP server on stdio...")

	if err := mcpserver.Serve(a); err != nil {
		return errors.Wrap(err, "MCP server error")
	}
	return nil
}
