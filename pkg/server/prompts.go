// ABOUTME: MCP prompt templates for common email workflows
// ABOUTME: Pre-defined prompts that help users accomplish common read-only tasks

package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerPrompts registers all MCP prompts
func (s *Server) registerPrompts() {
	// Email triage prompt
	s.mcp.AddPrompt(
		mcp.NewPrompt(
			"email_triage",
			mcp.WithPromptDescription("Help triage and prioritize unread emails efficiently"),
			mcp.WithArgument("priority", mcp.ArgumentDescription("Priority level to focus on (urgent/normal/all)")),
		),
		s.handleEmailTriagePrompt,
	)

	// Thread summarizer prompt
	s.mcp.AddPrompt(
		mcp.NewPrompt(
			"summarize_thread",
			mcp.WithPromptDescription("Summarize a conversation thread with participants and decisions"),
			mcp.WithArgument("thread_id", mcp.ArgumentDescription("The thread ID to summarize")),
			mcp.WithArgument("subject", mcp.ArgumentDescription("Subject to search for when thread_id is unknown")),
		),
		s.handleSummarizeThreadPrompt,
	)

	// Email finder prompt
	s.mcp.AddPrompt(
		mcp.NewPrompt(
			"find_email",
			mcp.WithPromptDescription("Search for specific emails using Gmail query syntax"),
			mcp.WithArgument("description", mcp.ArgumentDescription("What you remember about the email (sender, topic, timeframe)"), mcp.RequiredArgument()),
		),
		s.handleFindEmailPrompt,
	)
}

// Prompt handlers

func (s *Server) handleEmailTriagePrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	priority := "all"
	if request.Params.Arguments != nil {
		if p, ok := request.Params.Arguments["priority"]; ok && p != "" {
			priority = p
		}
	}

	query := "is:unread"
	if priority == "urgent" {
		query = "is:unread is:important"
	}

	promptText := fmt.Sprintf(`I'll help you triage your emails. Here's what I'll do:

1. **List your %s unread emails** using gmail_list_messages with query: "%s"
2. **Review each email** and categorize by:
   - Urgent action needed
   - Can wait / reply later
   - Informational only
3. **Surface the key facts** for each urgent item:
   - Who is asking and what they need
   - Any deadline mentioned in the message
4. **Pull full context** with gmail_get_message or gmail_get_thread where the snippet is not enough

This toolset is read-only: I can read, search, and summarize but never modify, send, or delete anything.

Let me start by fetching your unread emails...`, priority, query)

	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
	}

	return mcp.NewGetPromptResult("Email triage workflow to help prioritize your inbox", messages), nil
}

func (s *Server) handleSummarizeThreadPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	threadID := ""
	subject := ""

	if request.Params.Arguments != nil {
		if id, ok := request.Params.Arguments["thread_id"]; ok {
			threadID = id
		}
		if subj, ok := request.Params.Arguments["subject"]; ok {
			subject = subj
		}
	}

	if threadID == "" && subject == "" {
		return nil, fmt.Errorf("either thread_id or subject argument is required")
	}

	lookupStep := ""
	if threadID != "" {
		lookupStep = fmt.Sprintf("**Fetch the thread** directly using gmail_get_thread with thread_id: %s", threadID)
	} else {
		lookupStep = fmt.Sprintf("**Find the thread** using gmail_list_threads with query: subject:\"%s\", then fetch it with gmail_get_thread", subject)
	}

	promptText := fmt.Sprintf(`I'll summarize this conversation thread. Here's my plan:

1. %s
2. **Read every message** in arrival order (the thread preserves it)
3. **Produce a summary** covering:
   - Participants and who started the conversation
   - Timeline from the thread's date range
   - Key points and decisions per message
   - Open questions or pending action items
4. **Note attachments**: messages flagged with has_attachments likely carry supporting documents

Let me fetch the thread now...`, lookupStep)

	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
	}

	return mcp.NewGetPromptResult("Thread summarization with participants and decisions", messages), nil
}

func (s *Server) handleFindEmailPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	description := ""

	if request.Params.Arguments != nil {
		if d, ok := request.Params.Arguments["description"]; ok {
			description = d
		}
	}

	if description == "" {
		return nil, fmt.Errorf("description argument is required")
	}

	promptText := fmt.Sprintf(`I'll help you find the email matching: "%s"

**Search strategy:**
1. **Translate the description** into Gmail query syntax:
   - Sender: from:alice@example.com
   - Topic words: subject:invoice or bare keywords
   - Timeframe: newer_than:7d, after:2026/08/01
   - Attachments: has:attachment
2. **Run the search** using gmail_search_messages
3. **Refine** if too many or zero results:
   - Narrow with more terms or a label (label:receipts)
   - Widen by dropping the least certain term
4. **Retrieve the match** with gmail_get_message for the full decoded body

Let me build the query and run the search...`, description)

	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
	}

	return mcp.NewGetPromptResult("Email search assistant using Gmail query syntax", messages), nil
}
