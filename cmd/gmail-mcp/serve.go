// ABOUTME: Serve subcommand running the MCP server on stdio
// ABOUTME: Configures structured logging and starts the server loop

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sintem/gmail-mcp/pkg/server"
)

func newServeCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Starts the MCP server using stdio transport. This is the command MCP
clients invoke; stdout carries the protocol, so all logging goes to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}

			srv, err := server.NewServer(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

// newLogger builds a text logger on stderr. Stdout is reserved for the
// MCP protocol stream.
func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
