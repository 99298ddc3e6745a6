// ABOUTME: Tests for the Gmail tool handlers
// ABOUTME: Runs each read-only tool against a stub backend and checks the results

package server

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resultText extracts the text payload of a tool result
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestServer_HandleGetProfile(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_get_profile", nil)
	result, err := srv.handleGetProfile(context.Background(), request)

	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "testuser@example.com")
}

func TestServer_HandleListMessages(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_list_messages", map[string]interface{}{
		"query":       "is:unread",
		"max_results": 5,
	})
	result, err := srv.handleListMessages(context.Background(), request)

	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "m1")
	assert.Contains(t, text, "m2")
}

func TestServer_HandleListMessages_Defaults(t *testing.T) {
	srv := newStubServer(t)

	// No arguments at all - defaults cover query and max_results
	request := createMockRequest("gmail_list_messages", nil)
	result, err := srv.handleListMessages(context.Background(), request)

	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestServer_HandleGetMessage(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_get_message", map[string]interface{}{
		"message_id": "m1",
	})
	result, err := srv.handleGetMessage(context.Background(), request)

	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "body_plain")
	assert.Contains(t, text, "Hello")
}

func TestServer_HandleGetMessage_MissingID(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_get_message", map[string]interface{}{})
	result, err := srv.handleGetMessage(context.Background(), request)

	require.NoError(t, err, "argument errors surface as tool errors, not Go errors")
	assert.True(t, result.IsError)
}

func TestServer_HandleGetMessage_NotFound(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_get_message", map[string]interface{}{
		"message_id": "does-not-exist",
	})
	result, err := srv.handleGetMessage(context.Background(), request)

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")
}

func TestServer_HandleSearchMessages(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_search_messages", map[string]interface{}{
		"query": "from:alice has:attachment",
	})
	result, err := srv.handleSearchMessages(context.Background(), request)

	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "m9")
}

func TestServer_HandleSearchMessages_RequiresQuery(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_search_messages", map[string]interface{}{})
	result, err := srv.handleSearchMessages(context.Background(), request)

	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleListThreads(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_list_threads", map[string]interface{}{
		"max_results": 10,
	})
	result, err := srv.handleListThreads(context.Background(), request)

	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "t1")
}

func TestServer_HandleGetThread(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_get_thread", map[string]interface{}{
		"thread_id": "t1",
	})
	result, err := srv.handleGetThread(context.Background(), request)

	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "t1")
	assert.Contains(t, text, "message_count")
}

func TestServer_HandleGetThread_MissingID(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_get_thread", map[string]interface{}{})
	result, err := srv.handleGetThread(context.Background(), request)

	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleListLabels(t *testing.T) {
	srv := newStubServer(t)

	request := createMockRequest("gmail_list_labels", map[string]interface{}{
		"include_stats": true,
	})
	result, err := srv.handleListLabels(context.Background(), request)

	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "INBOX")
	assert.Contains(t, text, "receipts")
}
