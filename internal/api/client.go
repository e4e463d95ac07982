package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when OMDb has no entry for a lookup.
var ErrNotFound = errors.New("movie not found")

const DefaultBaseURL = "https://www.omdbapi.com/"

type Client struct {
	http    *http.Client
	baseURL *url.URL
	apiKey  string
	limiter *rate.Limiter
}

// NewClient returns an OMDb client issuing at most rps requests per second.
func NewClient(baseURL, apiKey string, rps float64) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("an OMDb API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: u,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// Get issues a GET with the given query parameters plus the API key and
// decodes the JSON body into result.
func (c *Client) Get(ctx context.Context, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", c.apiKey)
	u := *c.baseURL
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return "unexpected status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}
