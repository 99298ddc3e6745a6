// ABOUTME: Stub authentication for local testing without the broker OAuth flow
// ABOUTME: Provides Bearer token auth derived from a configured user name

package auth

import (
	"fmt"
	"net/http"
	"os"
)

// stubTransport adds Bearer token authentication to requests
type stubTransport struct {
	token string
	base  http.RoundTripper
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.token))
	return t.base.RoundTrip(req)
}

// NewStubClient creates an HTTP client with stub Bearer token auth.
// Used when GMAIL_MCP_STUB=true so the server can talk to a local
// stand-in backend without a real broker token.
func NewStubClient(user string) *http.Client {
	if user == "" {
		user = os.Getenv("GMAIL_MCP_STUB_USER")
		if user == "" {
			user = "testuser"
		}
	}

	token := fmt.Sprintf("user:%s", user)

	return &http.Client{
		Transport: &stubTransport{
			token: token,
			base:  http.DefaultTransport,
		},
	}
}
