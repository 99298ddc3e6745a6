// ABOUTME: Output types for normalized Gmail messages, threads, labels, and profile
// ABOUTME: Flat, decoded representations built from the backend's raw Gmail JSON

package gmail

// NormalizedMessage is the flat representation of one Gmail message: headers
// pulled out of the MIME tree, bodies decoded, attachment presence derived.
// String fields are never null - absent data is an empty string.
type NormalizedMessage struct {
	ID             string   `json:"id"`
	ThreadID       string   `json:"threadId"`
	LabelIDs       []string `json:"labelIds"`
	Snippet        string   `json:"snippet"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	Cc             string   `json:"cc"`
	Subject        string   `json:"subject"`
	Date           string   `json:"date"`
	BodyPlain      string   `json:"body_plain"`
	BodyHTML       string   `json:"body_html"`
	HasAttachments bool     `json:"has_attachments"`
}

// DateRange holds the Date headers of the first and last message of a thread,
// in the order the source delivered them.
type DateRange struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// NormalizedThread is a thread with every message normalized, in source order.
type NormalizedThread struct {
	ThreadID     string               `json:"threadId"`
	Subject      string               `json:"subject"`
	Participants []string             `json:"participants"`
	MessageCount int                  `json:"message_count"`
	DateRange    *DateRange           `json:"date_range,omitempty"`
	Messages     []*NormalizedMessage `json:"messages"`
}

// MessageSummary is the lightweight form used in list/search results
type MessageSummary struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Date     string   `json:"date,omitempty"`
	Snippet  string   `json:"snippet,omitempty"`
	LabelIDs []string `json:"labelIds,omitempty"`
}

// ListMessagesResult wraps message list results for MCP structuredContent
type ListMessagesResult struct {
	Messages           []MessageSummary `json:"messages"`
	NextPageToken      string           `json:"next_page_token,omitempty"`
	ResultSizeEstimate int64            `json:"result_size_estimate"`
}

// ThreadSummary is the lightweight form used in thread list results
type ThreadSummary struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet,omitempty"`
}

// ListThreadsResult wraps thread list results for MCP structuredContent
type ListThreadsResult struct {
	Threads            []ThreadSummary `json:"threads"`
	NextPageToken      string          `json:"next_page_token,omitempty"`
	ResultSizeEstimate int64           `json:"result_size_estimate"`
}

// Label is a Gmail label. Message and thread counts are only populated when
// the caller asked the backend for stats.
type Label struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	MessagesTotal int64  `json:"messages_total,omitempty"`
	ThreadsTotal  int64  `json:"threads_total,omitempty"`
}

// ListLabelsResult wraps label list results for MCP structuredContent
type ListLabelsResult struct {
	Labels []Label `json:"labels"`
	Count  int     `json:"count"`
}

// Profile is the connected Gmail account
type Profile struct {
	EmailAddress  string `json:"email_address"`
	MessagesTotal int64  `json:"messages_total"`
	ThreadsTotal  int64  `json:"threads_total"`
}
