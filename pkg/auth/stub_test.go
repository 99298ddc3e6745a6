// ABOUTME: Tests for stub authentication client
// ABOUTME: Validates Bearer token header injection and user resolution

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStubClient_BearerHeader(t *testing.T) {
	var gotAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	client := NewStubClient("alice@example.com")

	resp, err := client.Get(backend.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer user:alice@example.com", gotAuth)
}

func TestNewStubClient_UserResolution(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		envUser  string
		expected string
	}{
		{
			name:     "explicit user wins",
			arg:      "bob",
			envUser:  "carol",
			expected: "user:bob",
		},
		{
			name:     "env user when arg empty",
			arg:      "",
			envUser:  "carol",
			expected: "user:carol",
		},
		{
			name:     "default user",
			arg:      "",
			envUser:  "",
			expected: "user:testuser",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GMAIL_MCP_STUB_USER", tt.envUser)

			client := NewStubClient(tt.arg)
			transport, ok := client.Transport.(*stubTransport)
			require.True(t, ok)

			assert.Equal(t, tt.expected, transport.token)
		})
	}
}
