// ABOUTME: Root cobra command for the gmail-mcp CLI
// ABOUTME: Wires subcommands and global flags

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gmail-mcp",
	Short: "Read-only Gmail access for AI assistants over MCP",
	Long: `gmail-mcp is an MCP (Model Context Protocol) server that exposes
read-only Gmail operations: listing, reading, and searching messages,
threads, and labels.

Requests go through an OAuth-protected proxy backend; no Google
credentials are stored locally, only the backend's tokens.`,
	SilenceUsage: true,
}

// setVersion sets the version for the root command
func setVersion(v string) {
	rootCmd.Version = v
}

// execute runs the root command. Serving is the default action so the
// binary works as a bare MCP server command in client configs.
func execute() {
	rootCmd.SetVersionTemplate(`{{printf "gmail-mcp version %s\n" .Version}}`)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newToolsCmd())
}
