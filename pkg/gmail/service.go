// ABOUTME: Gmail operations over the proxy backend
// ABOUTME: Builds query strings, fetches raw JSON, and normalizes the responses

package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"google.golang.org/api/gmail/v1"

	"github.com/sintem/gmail-mcp/pkg/broker"
)

// Service exposes the read-only Gmail operations the backend proxies.
// All state is per-call; a Service is safe for concurrent use.
type Service struct {
	client *broker.Client
	logger *slog.Logger
}

// NewService creates a Gmail service over a backend client
func NewService(client *broker.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{client: client, logger: logger}
}

// GetProfile returns the authenticated account's profile
func (s *Service) GetProfile(ctx context.Context) (*Profile, error) {
	raw, err := s.client.Get(ctx, broker.PathGetProfile, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to get profile: %w", err)
	}

	var profile gmail.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("malformed profile response: %w", err)
	}

	return &Profile{
		EmailAddress:  profile.EmailAddress,
		MessagesTotal: profile.MessagesTotal,
		ThreadsTotal:  profile.ThreadsTotal,
	}, nil
}

// ListMessages lists messages matching query. pageToken is passed through
// opaquely; the backend caps maxResults on its side as well.
func (s *Service) ListMessages(ctx context.Context, query string, maxResults int64, pageToken string) (*ListMessagesResult, error) {
	return s.listMessages(ctx, broker.PathListMessages, query, maxResults, pageToken)
}

// SearchMessages searches messages with Gmail query syntax. Identical wire
// shape to ListMessages; the backend routes differ in their defaults.
func (s *Service) SearchMessages(ctx context.Context, query string, maxResults int64, pageToken string) (*ListMessagesResult, error) {
	return s.listMessages(ctx, broker.PathSearch, query, maxResults, pageToken)
}

// clampMax keeps result limits inside the 1..100 window the backend accepts
func clampMax(maxResults int64) int64 {
	if maxResults < 1 {
		return 1
	}
	if maxResults > 100 {
		return 100
	}
	return maxResults
}

func (s *Service) listMessages(ctx context.Context, path, query string, maxResults int64, pageToken string) (*ListMessagesResult, error) {
	values := url.Values{}
	values.Set("max", strconv.FormatInt(clampMax(maxResults), 10))
	if query != "" {
		values.Set("q", query)
	}
	if pageToken != "" {
		values.Set("pageToken", pageToken)
	}

	raw, err := s.client.Get(ctx, path, values)
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	var resp gmail.ListMessagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed message list response: %w", err)
	}

	result := &ListMessagesResult{
		Messages:           make([]MessageSummary, 0, len(resp.Messages)),
		NextPageToken:      resp.NextPageToken,
		ResultSizeEstimate: resp.ResultSizeEstimate,
	}
	for _, msg := range resp.Messages {
		result.Messages = append(result.Messages, summarizeMessage(msg))
	}

	s.logger.Debug("listed messages",
		slog.String("path", path),
		slog.Int("count", len(result.Messages)))

	return result, nil
}

// summarizeMessage builds the list-result projection of a message.
// The backend may hydrate list entries with metadata headers; when it sends
// bare id/threadId stubs the summary carries just those.
func summarizeMessage(msg *gmail.Message) MessageSummary {
	if msg == nil {
		return MessageSummary{}
	}

	summary := MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}

	if msg.Payload != nil {
		fields := extractHeaders(msg.Payload.Headers)
		summary.From = fields["from"]
		summary.To = fields["to"]
		summary.Subject = fields["subject"]
		summary.Date = fields["date"]
	}

	return summary
}

// GetMessage retrieves and normalizes a single message
func (s *Service) GetMessage(ctx context.Context, messageID string) (*NormalizedMessage, error) {
	if messageID == "" {
		return nil, fmt.Errorf("message ID is required")
	}

	raw, err := s.client.Get(ctx, broker.PathGetMessage+"/"+url.PathEscape(messageID), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to get message %s: %w", messageID, err)
	}

	var msg gmail.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("malformed message response for %s: %w", messageID, err)
	}

	return FormatMessage(&msg), nil
}

// ListThreads lists threads matching query with opaque-token pagination
func (s *Service) ListThreads(ctx context.Context, query string, maxResults int64, pageToken string) (*ListThreadsResult, error) {
	values := url.Values{}
	values.Set("max", strconv.FormatInt(clampMax(maxResults), 10))
	if query != "" {
		values.Set("q", query)
	}
	if pageToken != "" {
		values.Set("pageToken", pageToken)
	}

	raw, err := s.client.Get(ctx, broker.PathListThreads, values)
	if err != nil {
		return nil, fmt.Errorf("unable to list threads: %w", err)
	}

	var resp gmail.ListThreadsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed thread list response: %w", err)
	}

	result := &ListThreadsResult{
		Threads:            make([]ThreadSummary, 0, len(resp.Threads)),
		NextPageToken:      resp.NextPageToken,
		ResultSizeEstimate: resp.ResultSizeEstimate,
	}
	for _, t := range resp.Threads {
		if t == nil {
			continue
		}
		result.Threads = append(result.Threads, ThreadSummary{
			ID:      t.Id,
			Snippet: t.Snippet,
		})
	}

	return result, nil
}

// GetThread retrieves and normalizes a full thread. When includeHTML is
// false the normalized messages have their HTML bodies blanked, which keeps
// long threads digestible for tool consumers.
func (s *Service) GetThread(ctx context.Context, threadID string, includeHTML bool) (*NormalizedThread, error) {
	if threadID == "" {
		return nil, fmt.Errorf("thread ID is required")
	}

	raw, err := s.client.Get(ctx, broker.PathGetThread+"/"+url.PathEscape(threadID), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to get thread %s: %w", threadID, err)
	}

	var thread gmail.Thread
	if err := json.Unmarshal(raw, &thread); err != nil {
		return nil, fmt.Errorf("malformed thread response for %s: %w", threadID, err)
	}

	normalized := FormatThread(&thread)
	if !includeHTML {
		for _, msg := range normalized.Messages {
			msg.BodyHTML = ""
		}
	}

	return normalized, nil
}

// ListLabels lists all labels. includeStats asks the backend for per-label
// message/thread counts.
func (s *Service) ListLabels(ctx context.Context, includeStats bool) (*ListLabelsResult, error) {
	var values url.Values
	if includeStats {
		values = url.Values{}
		values.Set("includeStats", "true")
	}

	raw, err := s.client.Get(ctx, broker.PathListLabels, values)
	if err != nil {
		return nil, fmt.Errorf("unable to list labels: %w", err)
	}

	var resp gmail.ListLabelsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("malformed label list response: %w", err)
	}

	result := &ListLabelsResult{
		Labels: make([]Label, 0, len(resp.Labels)),
	}
	for _, l := range resp.Labels {
		if l == nil {
			continue
		}
		result.Labels = append(result.Labels, Label{
			ID:            l.Id,
			Name:          l.Name,
			Type:          l.Type,
			MessagesTotal: l.MessagesTotal,
			ThreadsTotal:  l.ThreadsTotal,
		})
	}
	result.Count = len(result.Labels)

	return result, nil
}
