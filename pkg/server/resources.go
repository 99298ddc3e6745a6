// ABOUTME: MCP resources exposing Gmail data
// ABOUTME: Dynamic resources for the account profile, unread inbox, and label list

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources
func (s *Server) registerResources() {
	// Account profile
	s.mcp.AddResource(
		mcp.NewResource(
			"gmail://profile",
			"Account Profile",
			mcp.WithResourceDescription("The authenticated account's email address and mailbox counts"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleProfileResource,
	)

	// Unread inbox summary
	s.mcp.AddResource(
		mcp.NewResource(
			"gmail://inbox/unread",
			"Unread Inbox",
			mcp.WithResourceDescription("Summary of unread messages in the inbox"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleUnreadInboxResource,
	)

	// Label list
	s.mcp.AddResource(
		mcp.NewResource(
			"gmail://labels",
			"Labels",
			mcp.WithResourceDescription("All system and user-defined labels"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleLabelsResource,
	)
}

// Resource handlers

func (s *Server) handleProfileResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	profile, err := s.gmail.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleUnreadInboxResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	result, err := s.gmail.ListMessages(ctx, "in:inbox is:unread", 20, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unread messages: %w", err)
	}

	data, err := json.MarshalIndent(map[string]interface{}{
		"unread_count": len(result.Messages),
		"messages":     result.Messages,
		"timestamp":    time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleLabelsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	result, err := s.gmail.ListLabels(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch labels: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
