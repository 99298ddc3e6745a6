// ABOUTME: HTTP client for the Gmail proxy backend
// ABOUTME: Issues authenticated GETs and returns raw JSON bodies or typed API errors

package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sintem/gmail-mcp/pkg/retry"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
	defaultStubURL    = "http://localhost:9000"
)

// Backend routes. The broker holds the Google credentials and forwards these
// to the Gmail REST API, returning the Gmail JSON body unchanged.
const (
	PathGetProfile   = "/mcpGmailGetProfile"
	PathListMessages = "/mcpGmailListMessages"
	PathGetMessage   = "/mcpGmailGetMessage"
	PathSearch       = "/mcpGmailSearch"
	PathListThreads  = "/mcpGmailListThreads"
	PathGetThread    = "/mcpGmailGetThread"
	PathListLabels   = "/mcpGmailListLabels"
)

// BaseURL resolves the backend base URL from the environment.
// In stub mode a local stand-in backend is assumed.
func BaseURL() (string, error) {
	if os.Getenv("GMAIL_MCP_STUB") == "true" {
		if u := os.Getenv("GMAIL_MCP_STUB_URL"); u != "" {
			return u, nil
		}
		return defaultStubURL, nil
	}
	u := os.Getenv("GMAIL_MCP_API_URL")
	if u == "" {
		return "", fmt.Errorf("GMAIL_MCP_API_URL not set")
	}
	return u, nil
}

// APIError is a non-2xx response from the backend. It carries the status code
// so the retry layer can distinguish rate limits and server errors from
// ordinary client errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned HTTP %d", e.StatusCode)
}

// HTTPStatusCode implements retry.HTTPError
func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client dispatches requests to the proxy backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a backend client. httpClient must already carry
// authentication (oauth2 transport or stub bearer transport). A nil logger
// disables logging.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// Get fetches path from the backend and returns the raw JSON body.
// Rate limits and server errors are retried with exponential backoff;
// other failures surface immediately as *APIError.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body json.RawMessage

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("unable to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("backend request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("unable to read backend response: %w", err)
		}

		c.logger.Debug("backend request",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)))

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return decodeAPIError(resp.StatusCode, data)
		}

		body = data
		return nil
	}

	if err := retry.Do(ctx, operation, c.maxRetries, c.retryDelay); err != nil {
		return nil, err
	}

	return body, nil
}

// errorBody covers the two error envelope shapes the backend emits:
// {"error": {"message": "..."}} and {"message": "..."}
type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func decodeAPIError(statusCode int, data []byte) *APIError {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Error != nil && eb.Error.Message != "" {
			return &APIError{StatusCode: statusCode, Message: eb.Error.Message}
		}
		if eb.Message != "" {
			return &APIError{StatusCode: statusCode, Message: eb.Message}
		}
	}
	return &APIError{StatusCode: statusCode, Message: http.StatusText(statusCode)}
}
