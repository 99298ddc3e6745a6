// ABOUTME: Tests for the Gmail service layer against a fake backend
// ABOUTME: Verifies query assembly, response normalization, and shape-error surfacing

package gmail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sintem/gmail-mcp/pkg/broker"
)

// newTestService wires a Service to a fake backend and returns the service
// plus a pointer to the last request URL the backend saw
func newTestService(t *testing.T, status int, body string) (*Service, *url.URL) {
	t.Helper()

	lastURL := &url.URL{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*lastURL = *r.URL
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := broker.NewClient(server.URL, nil, nil)
	return NewService(client, nil), lastURL
}

func TestGetProfile(t *testing.T) {
	svc, lastURL := newTestService(t, http.StatusOK, `{
		"emailAddress": "user@example.com",
		"messagesTotal": 1204,
		"threadsTotal": 311
	}`)

	profile, err := svc.GetProfile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "user@example.com", profile.EmailAddress)
	assert.Equal(t, int64(1204), profile.MessagesTotal)
	assert.Equal(t, int64(311), profile.ThreadsTotal)
	assert.Equal(t, broker.PathGetProfile, lastURL.Path)
}

func TestGetProfile_MalformedResponse(t *testing.T) {
	svc, _ := newTestService(t, http.StatusOK, `{"messagesTotal": "not a number"}`)

	profile, err := svc.GetProfile(context.Background())

	require.Error(t, err)
	assert.Nil(t, profile)
	assert.Contains(t, err.Error(), "malformed profile response")
}

func TestListMessages(t *testing.T) {
	svc, lastURL := newTestService(t, http.StatusOK, `{
		"messages": [
			{
				"id": "m1",
				"threadId": "t1",
				"snippet": "first preview",
				"labelIds": ["INBOX", "UNREAD"],
				"payload": {
					"headers": [
						{"name": "From", "value": "alice@example.com"},
						{"name": "Subject", "value": "Hello"}
					]
				}
			},
			{"id": "m2", "threadId": "t1"}
		],
		"nextPageToken": "tok-2",
		"resultSizeEstimate": 42
	}`)

	result, err := svc.ListMessages(context.Background(), "in:inbox", 10, "")

	require.NoError(t, err)
	require.Len(t, result.Messages, 2)

	assert.Equal(t, "m1", result.Messages[0].ID)
	assert.Equal(t, "alice@example.com", result.Messages[0].From)
	assert.Equal(t, "Hello", result.Messages[0].Subject)
	assert.Equal(t, []string{"INBOX", "UNREAD"}, result.Messages[0].LabelIDs)

	// bare id/threadId stub entries survive without headers
	assert.Equal(t, "m2", result.Messages[1].ID)
	assert.Equal(t, "", result.Messages[1].From)

	assert.Equal(t, "tok-2", result.NextPageToken)
	assert.Equal(t, int64(42), result.ResultSizeEstimate)

	assert.Equal(t, broker.PathListMessages, lastURL.Path)
	query := lastURL.Query()
	assert.Equal(t, "in:inbox", query.Get("q"))
	assert.Equal(t, "10", query.Get("max"))
	assert.Empty(t, query.Get("pageToken"))
}

func TestListMessages_PageTokenPassthrough(t *testing.T) {
	svc, lastURL := newTestService(t, http.StatusOK, `{"messages": []}`)

	_, err := svc.ListMessages(context.Background(), "", 5, "opaque-token==")

	require.NoError(t, err)
	query := lastURL.Query()
	assert.Equal(t, "opaque-token==", query.Get("pageToken"))
	assert.Empty(t, query.Get("q"), "empty query must not be sent")
}

func TestListMessages_EmptyResult(t *testing.T) {
	svc, _ := newTestService(t, http.StatusOK, `{}`)

	result, err := svc.ListMessages(context.Background(), "in:inbox", 10, "")

	require.NoError(t, err)
	assert.NotNil(t, result.Messages)
	assert.Empty(t, result.Messages)
	assert.Empty(t, result.NextPageToken)
}

func TestListMessages_ClampsMaxResults(t *testing.T) {
	tests := []struct {
		name        string
		maxResults  int64
		expectedMax string
	}{
		{"zero clamps up", 0, "1"},
		{"negative clamps up", -5, "1"},
		{"in range passes through", 25, "25"},
		{"over limit clamps down", 500, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, lastURL := newTestService(t, http.StatusOK, `{"messages": []}`)

			_, err := svc.ListMessages(context.Background(), "", tt.maxResults, "")

			require.NoError(t, err)
			assert.Equal(t, tt.expectedMax, lastURL.Query().Get("max"))
		})
	}
}

func TestListMessages_ShapeAnomaly(t *testing.T) {
	// messages must be a sequence; a scalar there is a backend bug and has
	// to surface as an error, not an empty list
	svc, _ := newTestService(t, http.StatusOK, `{"messages": "oops"}`)

	result, err := svc.ListMessages(context.Background(), "", 10, "")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "malformed message list response")
}

func TestSearchMessages_UsesSearchRoute(t *testing.T) {
	svc, lastURL := newTestService(t, http.StatusOK, `{"messages": []}`)

	_, err := svc.SearchMessages(context.Background(), "from:alice has:attachment", 20, "")

	require.NoError(t, err)
	assert.Equal(t, broker.PathSearch, lastURL.Path)
	assert.Equal(t, "from:alice has:attachment", lastURL.Query().Get("q"))
}

func TestGetMessage(t *testing.T) {
	svc, lastURL := newTestService(t, http.StatusOK, `{
		"id": "1",
		"threadId": "t1",
		"payload": {
			"mimeType": "text/plain",
			"headers": [{"name": "Subject", "value": "Hi"}],
			"body": {"data": "SGVsbG8"}
		}
	}`)

	msg, err := svc.GetMessage(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, "1", msg.ID)
	assert.Equal(t, "t1", msg.ThreadID)
	assert.Equal(t, "Hi", msg.Subject)
	assert.Equal(t, "Hello", msg.BodyPlain)
	assert.False(t, msg.HasAttachments)
	assert.Equal(t, broker.PathGetMessage+"/1", lastURL.Path)
}

func TestGetMessage_RequiresID(t *testing.T) {
	svc, _ := newTestService(t, http.StatusOK, `{}`)

	msg, err := svc.GetMessage(context.Background(), "")

	require.Error(t, err)
	assert.Nil(t, msg)
	assert.Contains(t, err.Error(), "message ID is required")
}

func TestGetMessage_BackendError(t *testing.T) {
	svc, _ := newTestService(t, http.StatusNotFound, `{"error": {"message": "Requested entity was not found."}}`)

	msg, err := svc.GetMessage(context.Background(), "missing")

	require.Error(t, err)
	assert.Nil(t, msg)
	assert.Contains(t, err.Error(), "Requested entity was not found.")
}

func TestListThreads(t *testing.T) {
	svc, lastURL := newTestService(t, http.StatusOK, `{
		"threads": [
			{"id": "t1", "snippet": "lunch plans"},
			{"id": "t2", "snippet": "quarterly report"}
		],
		"nextPageToken": "tok-9",
		"resultSizeEstimate": 2
	}`)

	result, err := svc.ListThreads(context.Background(), "is:unread", 10, "")

	require.NoError(t, err)
	require.Len(t, result.Threads, 2)
	assert.Equal(t, "t1", result.Threads[0].ID)
	assert.Equal(t, "lunch plans", result.Threads[0].Snippet)
	assert.Equal(t, "tok-9", result.NextPageToken)

	assert.Equal(t, broker.PathListThreads, lastURL.Path)
	assert.Equal(t, "is:unread", lastURL.Query().Get("q"))
}

func TestGetThread(t *testing.T) {
	body := `{
		"id": "t1",
		"messages": [
			{
				"id": "m1",
				"threadId": "t1",
				"payload": {
					"mimeType": "multipart/alternative",
					"headers": [
						{"name": "From", "value": "alice@example.com"},
						{"name": "Subject", "value": "Plans"}
					],
					"parts": [
						{"mimeType": "text/plain", "body": {"data": "cGxhaW4"}},
						{"mimeType": "text/html", "body": {"data": "PGI-aHRtbDwvYj4"}}
					]
				}
			}
		]
	}`

	tests := []struct {
		name         string
		includeHTML  bool
		expectedHTML string
	}{
		{
			name:         "html included on request",
			includeHTML:  true,
			expectedHTML: "<b>html</b>",
		},
		{
			name:         "html blanked by default",
			includeHTML:  false,
			expectedHTML: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, lastURL := newTestService(t, http.StatusOK, body)

			thread, err := svc.GetThread(context.Background(), "t1", tt.includeHTML)

			require.NoError(t, err)
			require.Len(t, thread.Messages, 1)
			assert.Equal(t, "plain", thread.Messages[0].BodyPlain)
			assert.Equal(t, tt.expectedHTML, thread.Messages[0].BodyHTML)
			assert.Equal(t, []string{"alice@example.com"}, thread.Participants)
			assert.Equal(t, broker.PathGetThread+"/t1", lastURL.Path)
		})
	}
}

func TestGetThread_RequiresID(t *testing.T) {
	svc, _ := newTestService(t, http.StatusOK, `{}`)

	thread, err := svc.GetThread(context.Background(), "", false)

	require.Error(t, err)
	assert.Nil(t, thread)
	assert.Contains(t, err.Error(), "thread ID is required")
}

func TestListLabels(t *testing.T) {
	body := `{
		"labels": [
			{"id": "INBOX", "name": "INBOX", "type": "system", "messagesTotal": 120, "threadsTotal": 80},
			{"id": "Label_1", "name": "receipts", "type": "user"}
		]
	}`

	tests := []struct {
		name         string
		includeStats bool
		statsParam   string
	}{
		{
			name:         "with stats",
			includeStats: true,
			statsParam:   "true",
		},
		{
			name:         "without stats",
			includeStats: false,
			statsParam:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, lastURL := newTestService(t, http.StatusOK, body)

			result, err := svc.ListLabels(context.Background(), tt.includeStats)

			require.NoError(t, err)
			require.Len(t, result.Labels, 2)
			assert.Equal(t, 2, result.Count)
			assert.Equal(t, "INBOX", result.Labels[0].ID)
			assert.Equal(t, int64(120), result.Labels[0].MessagesTotal)
			assert.Equal(t, "receipts", result.Labels[1].Name)

			assert.Equal(t, broker.PathListLabels, lastURL.Path)
			assert.Equal(t, tt.statsParam, lastURL.Query().Get("includeStats"))
		})
	}
}
