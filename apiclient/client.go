package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	hospauth "github.com/mediboard/hospauth"
)

const (
	loginPath   = "/api/auth/login"
	refreshPath = "/api/auth/refresh-token"
	userPath    = "/api/users/"

	defaultTimeout = 15 * time.Second
)

// TokenSource yields the current access token for the Authorization header
// of profile calls. Returning the empty string omits the header. The
// default reads the token the manager attached to the context with
// hospauth.WithBearerToken.
type TokenSource func(ctx context.Context) string

// Config configures the client. BaseURL is required; HTTPClient defaults to
// one with a 15 second timeout.
type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	TokenSource TokenSource
}

// Client talks to the hospital management authentication service. Safe for
// concurrent use.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, errors.New("base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	tokens := cfg.TokenSource
	if tokens == nil {
		tokens = hospauth.BearerTokenFromContext
	}
	return &Client{base: base, http: httpClient, tokens: tokens}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges credentials at the authentication endpoint. No bearer
// token is attached; there is no session yet.
func (c *Client) Login(ctx context.Context, email, password string) (*hospauth.TokenResponse, error) {
	var resp hospauth.TokenResponse
	if err := c.postJSON(ctx, loginPath, "", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh rotates the token pair at the refresh endpoint. An HTTP 401
// answer surfaces as hospauth.ErrRefreshUnauthorized.
func (c *Client) Refresh(ctx context.Context, accessToken, refreshToken string) (*hospauth.TokenResponse, error) {
	var resp hospauth.TokenResponse
	err := c.postJSON(ctx, refreshPath, accessToken, refreshRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUserByID fetches the full profile for a token subject, authorized with
// the current access token from the TokenSource.
func (c *Client) GetUserByID(ctx context.Context, userID string) (*hospauth.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+userPath+url.PathEscape(userID), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", hospauth.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	var profile hospauth.UserProfile
	if err := c.do(req, false, &profile); err != nil {
		return nil, err
	}
	if profile.Role == hospauth.RoleUnknown {
		profile.Role = hospauth.ParseRole(profile.RoleName)
	}
	return &profile, nil
}

func (c *Client) postJSON(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", hospauth.ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", hospauth.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.do(req, path == refreshPath, out)
}

// do executes the request. refreshCall selects the 401 mapping: only the
// refresh endpoint's rejection means the refresh token itself is dead.
func (c *Client) do(req *http.Request, refreshCall bool, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", hospauth.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		if refreshCall && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: http %d", hospauth.ErrRefreshUnauthorized, resp.StatusCode)
		}
		return fmt.Errorf("%w: http %d from %s", hospauth.ErrNetwork, resp.StatusCode, req.URL.Path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", hospauth.ErrNetwork, err)
	}
	return nil
}

var _ hospauth.API = (*Client)(nil)
