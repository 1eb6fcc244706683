package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Result represents a single image search match. Width and Height are
// zero when the provider omitted dimension metadata.
type Result struct {
	URL    string
	Host   string
	Width  int
	Height int
}

// StatusError reports a non-200 provider response. Throttling and
// gateway failures are transient; other statuses abandon the query.
type StatusError struct {
	Operation string
	Code      int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search %s returned %d", e.Operation, e.Code)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch e.Code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}

// Provider defines the search operations the pipeline consumes.
type Provider interface {
	Images(ctx context.Context, query string, limit int) ([]Result, error)
	WebTitles(ctx context.Context, query string, limit int) ([]string, error)
}

// Client provides access to the Programmable Search JSON API.
type Client struct {
	apiKey     string
	engineID   string
	baseURL    string
	httpClient *http.Client
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Programmable Search client.
func New(apiKey, engineID, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("search api key required")
	}
	engineID = strings.TrimSpace(engineID)
	if engineID == "" {
		return nil, errors.New("search engine id required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("search base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		engineID:   engineID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 25 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type itemImage struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type item struct {
	Title string     `json:"title"`
	Link  string     `json:"link"`
	Image *itemImage `json:"image"`
}

type response struct {
	Items []item `json:"items"`
}

// Images performs an image search and returns up to limit results. The
// API caps a single page at 10 results.
func (c *Client) Images(ctx context.Context, query string, limit int) ([]Result, error) {
	payload, err := c.get(ctx, "images", query, limit, true)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(payload.Items))
	for _, entry := range payload.Items {
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}
		parsed, err := url.Parse(link)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		result := Result{URL: link, Host: strings.ToLower(parsed.Hostname())}
		if entry.Image != nil {
			result.Width = entry.Image.Width
			result.Height = entry.Image.Height
		}
		results = append(results, result)
	}
	return results, nil
}

// WebTitles performs a web search and returns the non-empty result titles.
func (c *Client) WebTitles(ctx context.Context, query string, limit int) ([]string, error) {
	payload, err := c.get(ctx, "web titles", query, limit, false)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(payload.Items))
	for _, entry := range payload.Items {
		title := strings.TrimSpace(entry.Title)
		if title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

func (c *Client) get(ctx context.Context, operation, query string, limit int, imageSearch bool) (*response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 10 {
		limit = 10
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	params.Set("safe", "off")
	if imageSearch {
		params.Set("searchType", "image")
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Operation: operation, Code: resp.StatusCode}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &payload, nil
}
