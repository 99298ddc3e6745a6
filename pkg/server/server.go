// ABOUTME: MCP server implementation
// ABOUTME: Exposes the read-only Gmail operations and auth management as MCP tools

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sintem/gmail-mcp/pkg/auth"
	"github.com/sintem/gmail-mcp/pkg/broker"
	"github.com/sintem/gmail-mcp/pkg/gmail"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	defaultListMax   = 10
	defaultSearchMax = 20
)

// Server is the MCP server for the Gmail backend
type Server struct {
	gmail  *gmail.Service
	mcp    *server.MCPServer
	auth   *auth.Authenticator // For auth management tools
	logger *slog.Logger
}

// NewServer creates a new MCP server
func NewServer(ctx context.Context, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	baseURL, err := broker.BaseURL()
	if err != nil {
		return nil, err
	}

	var client *http.Client
	var authenticator *auth.Authenticator

	// Check for stub mode
	if os.Getenv("GMAIL_MCP_STUB") == "true" {
		client = auth.NewStubClient("")
	} else {
		authenticator, err = auth.NewAuthenticator(baseURL, auth.GetTokenPath())
		if err != nil {
			return nil, err
		}
		// Use non-interactive auth - if no token exists, client will be nil
		// and API calls will fail gracefully. User can authenticate via
		// auth_init/auth_complete tools.
		client, err = authenticator.GetClientIfAuthenticated(ctx)
		if err != nil {
			return nil, err
		}
		// If no token yet, use a placeholder client that will fail on API calls
		if client == nil {
			client = &http.Client{}
		}
	}

	gmailSvc := gmail.NewService(broker.NewClient(baseURL, client, logger), logger)

	s := &Server{
		gmail:  gmailSvc,
		auth:   authenticator,
		logger: logger,
	}

	s.mcp = server.NewMCPServer(
		"gmail-mcp",
		"1.0.0",
	)
	s.registerTools()
	s.registerPrompts()
	s.registerResources()

	return s, nil
}

// registerTools registers all available tools
func (s *Server) registerTools() {
	// Gmail tools
	s.mcp.AddTool(mcp.Tool{
		Name:        "gmail_get_profile",
		Description: "Get the authenticated Gmail account's profile (email address, message and thread counts)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"noop": map[string]interface{}{
					"type":        "boolean",
					"description": "No arguments needed; you can omit this",
				},
			},
		},
	}, s.handleGetProfile)

	s.mcp.AddTool(mcp.Tool{
		Name:        "gmail_list_messages",
		Description: "List Gmail messages. Defaults to the inbox; use query to narrow down.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query":       map[string]string{"type": "string", "description": "Gmail search query (default: 'in:inbox')"},
				"max_results": map[string]string{"type": "integer", "description": "Maximum number of messages to return (default: 10)"},
				"page_token":  map[string]string{"type": "string", "description": "Opaque token from a previous response to fetch the next page"},
			},
		},
	}, s.handleListMessages)

	s.mcp.AddTool(mcp.Tool{
		Name:        "gmail_get_message",
		Description: "Get a specific email message by ID with decoded plain-text and HTML bodies",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message_id": map[string]string{"type": "string", "description": "The message ID to retrieve"},
			},
			Required: []string{"message_id"},
		},
	}, s.handleGetMessage)

	s.mcp.AddTool(mcp.Tool{
		Name:        "gmail_search_messages",
		Description: "Search Gmail messages with full Gmail query syntax (e.g., 'from:alice has:attachment newer_than:7d')",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query":       map[string]string{"type": "string", "description": "Gmail search query"},
				"max_results": map[string]string{"type": "integer", "description": "Maximum number of messages to return (default: 20)"},
				"page_token":  map[string]string{"type": "string", "description": "Opaque token from a previous response to fetch the next page"},
			},
			Required: []string{"query"},
		},
	}, s.handleSearchMessages)

	s.mcp.AddTool(mcp.Tool{
		Name:        "gmail_list_threads",
		Description: "List Gmail conversation threads",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query":       map[string]string{"type": "string", "description": "Gmail search query to filter threads (default: 'in:inbox')"},
				"max_results": map[string]string{"type": "integer", "description": "Maximum number of threads to return (default: 10)"},
				"page_token":  map[string]string{"type": "string", "description": "Opaque token from a previous response to fetch the next page"},
			},
		},
	}, s.handleListThreads)

	s.mcp.AddTool(mcp.Tool{
		Name:        "gmail_get_thread",
		Description: "Get a full conversation thread with all messages normalized",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"thread_id": map[string]string{"type": "string", "description": "The thread ID to retrieve"},
				"include_html": map[string]interface{}{
					"type":        "boolean",
					"description": "Include HTML bodies in the messages (default: false, plain text only)",
				},
			},
			Required: []string{"thread_id"},
		},
	}, s.handleGetThread)

	s.mcp.AddTool(mcp.Tool{
		Name:        "gmail_list_labels",
		Description: "List all Gmail labels (system and user-defined)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"include_stats": map[string]interface{}{
					"type":        "boolean",
					"description": "Include per-label message and thread counts (default: false)",
				},
			},
		},
	}, s.handleListLabels)

	// Auth tools
	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_status",
		Description: "Check if OAuth authentication is valid by making a test API call",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"noop": map[string]interface{}{
					"type":        "boolean",
					"description": "No arguments needed; you can omit this",
				},
			},
		},
	}, s.handleAuthStatus)

	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_info",
		Description: "Get OAuth token metadata (expiry, refresh token presence) without making API calls",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"noop": map[string]interface{}{
					"type":        "boolean",
					"description": "No arguments needed; you can omit this",
				},
			},
		},
	}, s.handleAuthInfo)

	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_init",
		Description: "Start OAuth authentication flow. Returns an auth_url the USER must visit in their browser to authorize. After authorizing, the user receives a code to provide to auth_complete. Returns current status if already authenticated (use force=true to re-authenticate).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "Force new auth flow even if current auth is valid",
				},
			},
		},
	}, s.handleAuthInit)

	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_complete",
		Description: "Complete OAuth flow by exchanging authorization code for tokens. Call this after the user visits the auth_url from auth_init. The user should provide the FULL redirect URL from their browser (e.g., http://localhost/?code=abc123...) - the code will be extracted automatically.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]string{"type": "string", "description": "The full redirect URL from the browser, or just the authorization code"},
			},
			Required: []string{"code"},
		},
	}, s.handleAuthComplete)

	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_revoke",
		Description: "Delete cached OAuth token, forcing re-authentication on next API call",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"noop": map[string]interface{}{
					"type":        "boolean",
					"description": "No arguments needed; you can omit this",
				},
			},
		},
	}, s.handleAuthRevoke)
}

// Tool handlers

func (s *Server) handleGetProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := s.gmail.GetProfile(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(profile)
}

func (s *Server) handleListMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "in:inbox")
	maxResults := int64(request.GetInt("max_results", defaultListMax))
	pageToken := request.GetString("page_token", "")

	result, err := s.gmail.ListMessages(ctx, query, maxResults, pageToken)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (s *Server) handleGetMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messageID, err := request.RequireString("message_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	msg, err := s.gmail.GetMessage(ctx, messageID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(msg)
}

func (s *Server) handleSearchMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	maxResults := int64(request.GetInt("max_results", defaultSearchMax))
	pageToken := request.GetString("page_token", "")

	result, err := s.gmail.SearchMessages(ctx, query, maxResults, pageToken)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (s *Server) handleListThreads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "in:inbox")
	maxResults := int64(request.GetInt("max_results", defaultListMax))
	pageToken := request.GetString("page_token", "")

	result, err := s.gmail.ListThreads(ctx, query, maxResults, pageToken)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (s *Server) handleGetThread(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := request.RequireString("thread_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	includeHTML := request.GetBool("include_html", false)

	thread, err := s.gmail.GetThread(ctx, threadID, includeHTML)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(thread)
}

func (s *Server) handleListLabels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeStats := request.GetBool("include_stats", false)

	result, err := s.gmail.ListLabels(ctx, includeStats)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

// Auth tool handlers

// extractAuthCode extracts the authorization code from a URL or returns the
// input as-is. Handles the broker's redirect URL format:
// http://localhost/?code=abc123&state=...
func extractAuthCode(codeOrURL string) string {
	if strings.HasPrefix(codeOrURL, "http://") || strings.HasPrefix(codeOrURL, "https://") {
		if u, err := url.Parse(codeOrURL); err == nil {
			if code := u.Query().Get("code"); code != "" {
				return code
			}
		}
	}
	// Return as-is (already a code, or unparseable)
	return codeOrURL
}

// AuthStatusResponse is the response for auth_status tool
type AuthStatusResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func (s *Server) handleAuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// In stub mode, always return valid
	if os.Getenv("GMAIL_MCP_STUB") == "true" {
		return mcp.NewToolResultJSON(AuthStatusResponse{
			Valid:   true,
			Message: "stub mode - auth is simulated",
		})
	}

	// Try a lightweight API call to verify auth works
	_, err := s.gmail.GetProfile(ctx)
	if err != nil {
		return mcp.NewToolResultJSON(AuthStatusResponse{
			Valid:   false,
			Message: fmt.Sprintf("auth check failed: %v", err),
		})
	}

	return mcp.NewToolResultJSON(AuthStatusResponse{
		Valid:   true,
		Message: "authentication is valid",
	})
}

// AuthInfoResponse is the response for auth_info tool
type AuthInfoResponse struct {
	Valid       bool   `json:"valid"`
	AccessToken string `json:"access_token,omitempty"`
	Expiry      string `json:"expiry,omitempty"`
	ExpiresIn   string `json:"expires_in,omitempty"`
	HasRefresh  bool   `json:"has_refresh"`
	Message     string `json:"message,omitempty"`
}

func (s *Server) handleAuthInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// In stub mode, return fake info
	if os.Getenv("GMAIL_MCP_STUB") == "true" {
		return mcp.NewToolResultJSON(AuthInfoResponse{
			Valid:      true,
			HasRefresh: true,
			Message:    "stub mode - token info is simulated",
		})
	}

	if s.auth == nil {
		return mcp.NewToolResultJSON(AuthInfoResponse{
			Valid:   false,
			Message: "authenticator not initialized",
		})
	}

	info, err := s.auth.TokenInfo()
	if err != nil {
		return mcp.NewToolResultJSON(AuthInfoResponse{
			Valid:   false,
			Message: fmt.Sprintf("failed to get token info: %v", err),
		})
	}

	resp := AuthInfoResponse{
		Valid:       info.Valid,
		AccessToken: info.AccessToken,
		HasRefresh:  info.HasRefresh,
	}

	if !info.Expiry.IsZero() {
		resp.Expiry = info.Expiry.Format(time.RFC3339)
		resp.ExpiresIn = info.ExpiresIn.Round(time.Second).String()
	}

	return mcp.NewToolResultJSON(resp)
}

// AuthInitResponse is the response for auth_init tool
type AuthInitResponse struct {
	Status  string `json:"status"`
	AuthURL string `json:"auth_url,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleAuthInit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// In stub mode, return simulated response
	if os.Getenv("GMAIL_MCP_STUB") == "true" {
		return mcp.NewToolResultJSON(AuthInitResponse{
			Status:  "valid",
			Message: "stub mode - auth is simulated, no action needed",
		})
	}

	if s.auth == nil {
		return mcp.NewToolResultJSON(AuthInitResponse{
			Status:  "error",
			Message: "authenticator not initialized",
		})
	}

	force := request.GetBool("force", false)

	// Check current auth status if not forcing
	if !force {
		info, err := s.auth.TokenInfo()
		if err == nil && info.Valid {
			return mcp.NewToolResultJSON(AuthInitResponse{
				Status:  "valid",
				Message: "current authentication is valid - use force=true to re-authenticate",
			})
		}
	}

	// Return auth URL for user to visit
	return mcp.NewToolResultJSON(AuthInitResponse{
		Status:  "auth_required",
		AuthURL: s.auth.AuthURL(),
		Message: "visit the auth_url in a browser and authorize the app. After authorizing, copy the FULL URL from your browser (it will look like http://localhost/?code=...) and provide it to auth_complete",
	})
}

// AuthCompleteResponse is the response for auth_complete tool
type AuthCompleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleAuthComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// In stub mode, return simulated response
	if os.Getenv("GMAIL_MCP_STUB") == "true" {
		return mcp.NewToolResultJSON(AuthCompleteResponse{
			Success: true,
			Message: "stub mode - auth completion simulated",
		})
	}

	if s.auth == nil {
		return mcp.NewToolResultJSON(AuthCompleteResponse{
			Success: false,
			Message: "authenticator not initialized",
		})
	}

	codeOrURL, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Extract code from URL if user provided the full redirect URL
	code := extractAuthCode(codeOrURL)

	if err := s.auth.ExchangeCode(ctx, code); err != nil {
		return mcp.NewToolResultJSON(AuthCompleteResponse{
			Success: false,
			Message: fmt.Sprintf("token exchange failed: %v", err),
		})
	}

	return mcp.NewToolResultJSON(AuthCompleteResponse{
		Success: true,
		Message: "authentication completed successfully - token saved",
	})
}

// AuthRevokeResponse is the response for auth_revoke tool
type AuthRevokeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleAuthRevoke(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// In stub mode, return simulated response
	if os.Getenv("GMAIL_MCP_STUB") == "true" {
		return mcp.NewToolResultJSON(AuthRevokeResponse{
			Success: true,
			Message: "stub mode - auth revocation simulated",
		})
	}

	if s.auth == nil {
		return mcp.NewToolResultJSON(AuthRevokeResponse{
			Success: false,
			Message: "authenticator not initialized",
		})
	}

	if err := s.auth.RevokeToken(); err != nil {
		return mcp.NewToolResultJSON(AuthRevokeResponse{
			Success: false,
			Message: fmt.Sprintf("failed to revoke token: %v", err),
		})
	}

	return mcp.NewToolResultJSON(AuthRevokeResponse{
		Success: true,
		Message: "token revoked - use auth_init to start new authentication flow",
	})
}

// ListTools returns all registered tools
func (s *Server) ListTools() []mcp.Tool {
	serverTools := s.mcp.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, st := range serverTools {
		tools = append(tools, st.Tool)
	}
	return tools
}

// Serve starts the MCP server with stdio transport
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	return server.ServeStdio(s.mcp)
}
