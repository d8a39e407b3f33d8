// Package httpx is chatwarden's shared HTTP collaborator: every GET
// and POST chatwarden makes (stream discovery pages, chat pages, chat
// continuation POSTs) goes through one Client so header, pacing, and
// error-classification policy lives in exactly one place. Retrying is
// left to callers.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client wraps net/http.Client with chatwarden's fixed outbound
// identity and a local rate limiter that paces our own request
// volume — distinct from negotiating with a server's rate-limit
// response, which chatwarden does not attempt.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New builds a Client that keeps connections alive and paces outbound
// requests to at most requestsPerSecond.
func New(requestsPerSecond float64) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// TransportError wraps a failure to even complete the round trip
// (DNS, TLS, connection refused, timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("httpx: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ClientError reports a 4xx response; Body holds the response body
// for callers that want to inspect it (e.g. a parse-failure dump).
type ClientError struct {
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("httpx: client error: status %d", e.StatusCode)
}

// ServerError reports a 5xx response.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("httpx: server error: status %d", e.StatusCode)
}

const (
	acceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguageHeader = "en-US,en;q=0.5"
)

func (c *Client) setCommonHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguageHeader)
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// Get fetches url, presenting userAgent, and returns the decoded
// response body or a classified error.
func (c *Client) Get(ctx context.Context, url, userAgent string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &TransportError{Op: "build GET request", Err: err}
	}
	c.setCommonHeaders(req, userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Op: "GET " + url, Err: err}
	}
	defer resp.Body.Close()

	return extractResponse(resp)
}

// Post submits body to url with referer and userAgent set, returning
// the decoded response body or a classified error.
func (c *Client) Post(ctx context.Context, url, userAgent, referer, body string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return "", &TransportError{Op: "build POST request", Err: err}
	}
	c.setCommonHeaders(req, userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Op: "POST " + url, Err: err}
	}
	defer resp.Body.Close()

	return extractResponse(resp)
}

func extractResponse(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "read response body", Err: err}
	}
	body := string(raw)

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", &ClientError{StatusCode: resp.StatusCode, Body: body}
	case resp.StatusCode >= 500:
		return "", &ServerError{StatusCode: resp.StatusCode, Body: body}
	default:
		return body, nil
	}
}
