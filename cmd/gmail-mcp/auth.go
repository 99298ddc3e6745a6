// ABOUTME: Auth subcommands for managing the OAuth token from the terminal
// ABOUTME: Covers interactive login, token status, and revocation

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sintem/gmail-mcp/pkg/auth"
	"github.com/sintem/gmail-mcp/pkg/broker"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage OAuth authentication",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthRevokeCmd())

	return cmd
}

func newAuthorizer() (*auth.Authenticator, error) {
	baseURL, err := broker.BaseURL()
	if err != nil {
		return nil, err
	}
	return auth.NewAuthenticator(baseURL, auth.GetTokenPath())
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Run the interactive OAuth flow and cache the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			authenticator, err := newAuthorizer()
			if err != nil {
				return err
			}

			if _, err := authenticator.GetClient(cmd.Context()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			fmt.Println("Authentication successful - token saved")
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cached token metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			authenticator, err := newAuthorizer()
			if err != nil {
				return err
			}

			info, err := authenticator.TokenInfo()
			if err != nil {
				return fmt.Errorf("no cached token: %w", err)
			}

			fmt.Printf("valid:       %v\n", info.Valid)
			fmt.Printf("has refresh: %v\n", info.HasRefresh)
			if !info.Expiry.IsZero() {
				fmt.Printf("expires:     %s (%s)\n",
					info.Expiry.Format(time.RFC3339),
					info.ExpiresIn.Round(time.Second))
			}
			return nil
		},
	}
}

func newAuthRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke",
		Short: "Delete the cached token",
		RunE: func(cmd *cobra.Command, args []string) error {
			authenticator, err := newAuthorizer()
			if err != nil {
				return err
			}

			if err := authenticator.RevokeToken(); err != nil {
				return err
			}

			fmt.Println("Token revoked")
			return nil
		},
	}
}
