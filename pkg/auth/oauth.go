// ABOUTME: OAuth 2.0 authentication against the Gmail token broker
// ABOUTME: Handles config from env, token caching, and refresh persistence

package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// DefaultScopes are the broker scopes requested by default. They are broker
// scope names, not Google OAuth scope URLs; the broker maps them to the Gmail
// permissions it holds.
var DefaultScopes = []string{"gmail.readonly"}

// Authenticator handles OAuth 2.0 authentication against the broker
type Authenticator struct {
	tokenPath string
	config    *oauth2.Config
}

// NewAuthenticator creates a new OAuth authenticator for the broker at baseURL.
// Client credentials come from GMAIL_MCP_CLIENT_ID / GMAIL_MCP_CLIENT_SECRET;
// scopes may be overridden with a comma-separated GMAIL_MCP_SCOPES.
// The broker serves /authorize and /token itself (it proxies to Google OAuth
// behind the scenes); account_type=mcp asks it for a lightweight MCP account.
func NewAuthenticator(baseURL, tokenPath string) (*Authenticator, error) {
	clientID := os.Getenv("GMAIL_MCP_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("GMAIL_MCP_CLIENT_ID not set. Obtain MCP client credentials from the broker operator")
	}
	clientSecret := os.Getenv("GMAIL_MCP_CLIENT_SECRET")

	scopes := DefaultScopes
	if raw := os.Getenv("GMAIL_MCP_SCOPES"); raw != "" {
		scopes = nil
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				scopes = append(scopes, s)
			}
		}
	}

	base := strings.TrimRight(baseURL, "/")
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/authorize?account_type=mcp",
			TokenURL: base + "/token",
		},
		RedirectURL: "http://localhost",
		Scopes:      scopes,
	}

	return &Authenticator{
		tokenPath: tokenPath,
		config:    config,
	}, nil
}

// GetClient returns an HTTP client with valid broker credentials, running the
// interactive authorization flow if no cached token exists.
func (a *Authenticator) GetClient(ctx context.Context) (*http.Client, error) {
	token, err := a.loadToken()
	if err != nil {
		// No token found, need to authenticate
		token, err = a.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		if err := a.saveToken(token); err != nil {
			return nil, err
		}
	}

	return a.clientFor(ctx, token), nil
}

// GetClientIfAuthenticated returns an HTTP client if a cached token exists,
// or (nil, nil) when the user has not authenticated yet. It never prompts;
// callers are expected to direct the user to auth_init/auth_complete.
func (a *Authenticator) GetClientIfAuthenticated(ctx context.Context) (*http.Client, error) {
	token, err := a.loadToken()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to read cached token: %w", err)
	}

	return a.clientFor(ctx, token), nil
}

// clientFor wraps a token in a refreshing, persisting HTTP client
func (a *Authenticator) clientFor(ctx context.Context, token *oauth2.Token) *http.Client {
	tokenSource := a.config.TokenSource(ctx, token)
	persistentSource := NewPersistentTokenSource(tokenSource, a.saveToken)
	return oauth2.NewClient(ctx, persistentSource)
}

// loadToken loads a cached token from disk
func (a *Authenticator) loadToken() (token *oauth2.Token, err error) {
	f, err := os.Open(a.tokenPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	token = &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

// saveToken saves a token to disk using atomic write (write to temp, then rename).
// This prevents partial writes and race conditions.
func (a *Authenticator) saveToken(token *oauth2.Token) error {
	if err := EnsureDir(a.tokenPath); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	// Write to temp file first for atomic operation
	dir := filepath.Dir(a.tokenPath)
	tmpFile, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		// Retry once if directory was removed between EnsureDir and CreateTemp (TOCTOU)
		if err := EnsureDir(a.tokenPath); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
		tmpFile, err = os.CreateTemp(dir, ".token-*.tmp")
		if err != nil {
			return fmt.Errorf("failed to create temp file: %w", err)
		}
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on any error
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	// Set restrictive permissions before writing sensitive data
	if err := tmpFile.Chmod(0600); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}

	if err := json.NewEncoder(tmpFile).Encode(token); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, a.tokenPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// authenticate performs the OAuth flow to get a new token
func (a *Authenticator) authenticate(ctx context.Context) (*oauth2.Token, error) {
	authURL := a.AuthURL()
	fmt.Printf("Go to the following link in your browser:\n%v\n", authURL)
	fmt.Println("Enter authorization code: ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("unable to read authorization code: %w", err)
		}
		return nil, fmt.Errorf("no authorization code provided")
	}
	authCode := strings.TrimSpace(scanner.Text())
	if authCode == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}

	token, err := a.config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token: %w", err)
	}

	return token, nil
}

// RevokeToken deletes the cached token
func (a *Authenticator) RevokeToken() error {
	if _, err := os.Stat(a.tokenPath); err == nil {
		return os.Remove(a.tokenPath)
	}
	return nil
}

// PersistentTokenSource wraps an oauth2.TokenSource and persists refreshed tokens to disk.
// This ensures that when the underlying TokenSource automatically refreshes an expired
// access token, the new token is saved so it survives server restarts.
type PersistentTokenSource struct {
	source    oauth2.TokenSource
	lastToken *oauth2.Token
	saveFn    func(*oauth2.Token) error
	mu        sync.Mutex
}

// NewPersistentTokenSource creates a TokenSource that persists tokens when they change.
func NewPersistentTokenSource(source oauth2.TokenSource, saveFn func(*oauth2.Token) error) *PersistentTokenSource {
	return &PersistentTokenSource{
		source: source,
		saveFn: saveFn,
	}
}

// Token returns a valid token, persisting it to disk if it changed.
func (p *PersistentTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.source.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Only save if token changed (new access token)
	if p.lastToken == nil || token.AccessToken != p.lastToken.AccessToken {
		// Best-effort save - don't fail the token fetch if persistence fails
		_ = p.saveFn(token)
		p.lastToken = token
	}

	return token, nil
}

// TokenInfo contains metadata about the cached broker token
type TokenInfo struct {
	Valid       bool          `json:"valid"`
	AccessToken string        `json:"access_token"` // Masked for security
	Expiry      time.Time     `json:"expiry"`
	ExpiresIn   time.Duration `json:"expires_in"`
	HasRefresh  bool          `json:"has_refresh"`
}

// TokenInfo returns metadata about the cached token without making API calls.
func (a *Authenticator) TokenInfo() (*TokenInfo, error) {
	token, err := a.loadToken()
	if err != nil {
		// No token file or unreadable - return empty info
		return &TokenInfo{Valid: false}, nil
	}

	info := &TokenInfo{
		Valid:       token.AccessToken != "" && token.Valid(),
		AccessToken: maskToken(token.AccessToken),
		Expiry:      token.Expiry,
		HasRefresh:  token.RefreshToken != "",
	}

	if !token.Expiry.IsZero() {
		info.ExpiresIn = time.Until(token.Expiry)
	}

	return info, nil
}

// maskToken returns a masked version of the token for safe display.
// Shows first 4 and last 4 characters, e.g., "eyJh...7890"
func maskToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// AuthURL returns the broker authorization URL for user authentication.
func (a *Authenticator) AuthURL() string {
	return a.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// ExchangeCode exchanges an authorization code for tokens and saves them.
func (a *Authenticator) ExchangeCode(ctx context.Context, code string) error {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}
	return a.saveToken(token)
}
