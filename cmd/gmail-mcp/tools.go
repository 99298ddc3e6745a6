// ABOUTME: Tools subcommand listing the registered MCP tools
// ABOUTME: Useful for checking what an MCP client will see

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sintem/gmail-mcp/pkg/server"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools this server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.NewServer(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			for _, tool := range srv.ListTools() {
				fmt.Printf("%-24s %s\n", tool.Name, tool.Description)
			}
			return nil
		},
	}
}
