package services

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

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/shared"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL   = "http://127.0.0.1:8000/api"
	defaultUserAgent = "stemhub-cli"
	requestIDHeader  = "X-Request-ID"
)

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	// Tokens supplies the bearer credential for authorized calls. It is read at call time.
	Tokens  oauth2.TokenSource
	Logger  *log.Logger
	Metrics *Metrics
}

// Client talks to the stemhub REST API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	authClient *http.Client
	logger     *log.Logger
	metrics    *Metrics
}

// NewClient creates a new API client. Zero-valued options fall back to defaults.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	authClient := opts.HTTPClient
	if opts.Tokens != nil {
		base := opts.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authClient = &http.Client{
			Transport:     &oauth2.Transport{Source: opts.Tokens, Base: base},
			CheckRedirect: opts.HTTPClient.CheckRedirect,
			Jar:           opts.HTTPClient.Jar,
			Timeout:       opts.HTTPClient.Timeout,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/") + "/",
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		authClient: authClient,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// BaseURL returns the API root, always ending in a slash.
func (c *Client) BaseURL() string { return c.baseURL }

// request describes one API call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// contentLength is set for bodies whose size net/http cannot infer.
	contentLength int64
	authorized    bool
}

// send performs req and returns the response body with any {"data": ...} wrapper removed.
//
// Non-2xx responses are returned as [*APIError].
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	fullURL := c.baseURL + strings.TrimLeft(req.path, "/")
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, req.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.contentLength > 0 {
		httpReq.ContentLength = req.contentLength
	}

	requestID := shared.GenerateID()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(requestIDHeader, requestID)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	client := c.httpClient
	if req.authorized {
		client = c.authClient
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		c.metrics.observe(req.method, req.path, 0, time.Since(start))
		c.logger.Debug("request failed", "method", req.method, "path", req.path, "request_id", requestID, "err", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.observe(req.method, req.path, resp.StatusCode, time.Since(start))
	c.logger.Debug("request", "method", req.method, "path", req.path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return unwrapData(body), nil
}

// doJSON sends in as a JSON body (when non-nil) and decodes the response into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any, authorized bool) error {
	req := request{method: method, path: path, query: query, authorized: authorized}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}

	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// unwrapData returns the value of a top-level "data" key, or body unchanged.
func unwrapData(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return body
	}
	if data, ok := envelope["data"]; ok && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return data
	}
	return body
}

func resourcePath(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/") + "/"
}
