// Package oauth2client is a low-level OAuth2 HTTP client: it builds
// authorization URLs, exchanges authorization codes for tokens, and performs
// authenticated resource requests. Protocol interpretation (error
// classification, state handling) belongs to the strategy layer on top.
package oauth2client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultUserAgent = "vismooc-oauth2"

// Client talks to a single OAuth2 provider. The exported fields tune provider
// quirks and may be adjusted after construction, before first use.
type Client struct {
	clientID      string
	clientSecret  string
	baseURL       string
	authorizeURL  string
	tokenURL      string
	customHeaders http.Header

	// AccessTokenName is the field the provider returns the access token
	// under. Defaults to "access_token".
	AccessTokenName string

	// AuthMethod is the Authorization header scheme. Defaults to "Bearer".
	AuthMethod string

	// UseAuthorizationHeaderForGET sends the access token in the
	// Authorization header instead of a query parameter.
	UseAuthorizationHeaderForGET bool

	// HTTPClient performs the actual requests.
	HTTPClient *http.Client
}

// New builds a Client. authorizeURL and tokenURL may be absolute, or paths
// resolved against baseURL; empty values get the conventional defaults.
func New(clientID, clientSecret, baseURL, authorizeURL, tokenURL string, customHeaders http.Header) *Client {
	if authorizeURL == "" {
		authorizeURL = "/oauth/authorize"
	}
	if tokenURL == "" {
		tokenURL = "/oauth/access_token"
	}
	return &Client{
		clientID:        clientID,
		clientSecret:    clientSecret,
		baseURL:         baseURL,
		authorizeURL:    authorizeURL,
		tokenURL:        tokenURL,
		customHeaders:   customHeaders,
		AccessTokenName: "access_token",
		AuthMethod:      "Bearer",
		HTTPClient:      &http.Client{Timeout: 30 * time.Second},
	}
}

// ClientID returns the configured client identifier.
func (c *Client) ClientID() string { return c.clientID }

func (c *Client) resolve(u string) string {
	parsed, err := url.Parse(u)
	if err == nil && parsed.IsAbs() {
		return u
	}
	return strings.TrimSuffix(c.baseURL, "/") + u
}

// AuthorizeURL returns the provider authorization endpoint with params merged
// into any query the endpoint URL already carries. Parameters templated into
// the endpoint URL win collisions, so a provider-pinned scope or audience
// survives call-site defaults; client_id is always set last.
func (c *Client) AuthorizeURL(params url.Values) string {
	u, err := url.Parse(c.resolve(c.authorizeURL))
	if err != nil {
		// A malformed endpoint is a construction-time mistake; surface it
		// loudly at the redirect instead of panicking mid-request.
		return c.authorizeURL
	}
	q := u.Query()
	for key, values := range params {
		if len(values) == 0 || q.Has(key) {
			continue
		}
		q.Set(key, values[len(values)-1])
	}
	q.Set("client_id", c.clientID)
	u.RawQuery = q.Encode()
	return u.String()
}

// TokenResponse is a parsed token endpoint response. Params holds every field
// beyond the two token fields, e.g. expires_in or provider extensions.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	Params       map[string]any
}

// AccessToken exchanges code at the token endpoint. The grant type defaults
// to authorization_code; pass grant_type=refresh_token in params to refresh,
// in which case code is sent as the refresh_token parameter. Responses are
// parsed as JSON first, then as form encoding for older providers.
func (c *Client) AccessToken(ctx context.Context, code string, params url.Values) (*TokenResponse, error) {
	form := url.Values{}
	for key, values := range params {
		for _, v := range values {
			form.Set(key, v)
		}
	}
	if form.Get("grant_type") == "" {
		form.Set("grant_type", "authorization_code")
	}
	if form.Get("grant_type") == "refresh_token" {
		form.Set("refresh_token", code)
	} else {
		form.Set("code", code)
	}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded")

	data, err := c.Do(ctx, http.MethodPost, c.resolve(c.tokenURL), headers, []byte(form.Encode()))
	if err != nil {
		return nil, err
	}

	fields := parseTokenBody(data)

	token, _ := fields[c.AccessTokenName].(string)
	if token == "" {
		// The provider answered 2xx without a token. The message shape is a
		// contract: exactly the credential triple, nothing else.
		detail, _ := json.Marshal(map[string]string{
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
			"code":          code,
		})
		return nil, &Error{Status: http.StatusBadRequest, Message: string(detail)}
	}

	refresh, _ := fields["refresh_token"].(string)
	delete(fields, c.AccessTokenName)
	delete(fields, "refresh_token")

	return &TokenResponse{AccessToken: token, RefreshToken: refresh, Params: fields}, nil
}

func parseTokenBody(data []byte) map[string]any {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err == nil {
		return fields
	}
	fields = make(map[string]any)
	if values, err := url.ParseQuery(string(data)); err == nil {
		for key, vs := range values {
			if len(vs) > 0 {
				fields[key] = vs[0]
			}
		}
	}
	return fields
}

// Get fetches a protected resource. The access token travels in the
// Authorization header when UseAuthorizationHeaderForGET is set, otherwise as
// a query parameter named after AccessTokenName.
func (c *Client) Get(ctx context.Context, rawURL, accessToken string) ([]byte, error) {
	headers := http.Header{}
	if accessToken != "" {
		if c.UseAuthorizationHeaderForGET {
			headers.Set("Authorization", c.AuthMethod+" "+accessToken)
		} else {
			u, err := url.Parse(rawURL)
			if err != nil {
				return nil, fmt.Errorf("parse resource URL: %w", err)
			}
			q := u.Query()
			q.Set(c.AccessTokenName, accessToken)
			u.RawQuery = q.Encode()
			rawURL = u.String()
		}
	}
	return c.Do(ctx, http.MethodGet, rawURL, headers, nil)
}

// Do performs one HTTP request against the provider. Header precedence is
// per-call over client-wide custom headers over defaults. Non-2xx responses
// become *Error carrying the status and body.
func (c *Client) Do(ctx context.Context, method, rawURL string, headers http.Header, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, rawURL, err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	for key, values := range c.customHeaders {
		req.Header[http.CanonicalHeaderKey(key)] = values
	}
	for key, values := range headers {
		req.Header[http.CanonicalHeaderKey(key)] = values
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Message: string(data)}
	}
	return data, nil
}
