// Package fetch holds the outbound HTTP helpers shared by every data source.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxBodyBytes = 32 << 20

// Client is an HTTP client with an outbound request limiter. Public LCD and
// GraphQL endpoints throttle aggressively, so every source shares one.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New returns a Client allowing rps requests per second with the given burst.
// rps <= 0 disables limiting.
func New(timeout time.Duration, rps float64, burst int) *Client {
	lim := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: lim,
	}
}

// Wrap adapts an existing http.Client (e.g. httptest's) without limiting.
func Wrap(c *http.Client) *Client {
	return &Client{http: c, limiter: rate.NewLimiter(rate.Inf, 0)}
}

// Do sends req after waiting for the limiter and returns the body of a 200
// response.
func (c *Client) Do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL.Host, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.String(), Body: snippet(body)}
	}
	return body, nil
}

// Get fetches url and returns the raw body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(req)
}

// GetJSON fetches url and decodes the JSON body into T.
func GetJSON[T any](ctx context.Context, c *Client, url string) (T, error) {
	var result T
	body, err := c.Get(ctx, url)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("decode %s: %w", url, err)
	}
	return result, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse[T any] struct {
	Data   T `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// PostGraphQL runs a GraphQL query and decodes its data field into T.
func PostGraphQL[T any](ctx context.Context, c *Client, url, query string, vars map[string]any) (T, error) {
	var zero T
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return zero, fmt.Errorf("encode graphql: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.Do(req)
	if err != nil {
		return zero, err
	}

	var resp graphqlResponse[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return zero, fmt.Errorf("decode graphql: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return zero, fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	return resp.Data, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.Code, e.URL, e.Body)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
