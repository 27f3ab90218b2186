package appview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"skyview/internal/core/feed"
)

// DefaultBaseURL is the public, unauthenticated Bluesky AppView.
const DefaultBaseURL = "https://public.api.bsky.app"

const userAgent = "skyview/1.0 (+https://github.com/skyview)"

// Client calls the public AppView. It implements feed.Client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitBreaker
	logger     *slog.Logger
}

// Option configures the client
type Option func(*Client)

// WithBaseURL overrides the AppView base URL (used by tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates an AppView client with a 10 second request timeout and
// a per-endpoint circuit breaker.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default().With("component", "appview"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newCircuitBreaker(c.logger)
	return c
}

// GetAuthorFeed retrieves one page of an author's feed by DID via
// app.bsky.feed.getAuthorFeed.
func (c *Client) GetAuthorFeed(ctx context.Context, did string, limit int, cursor string) (*feed.FeedPage, error) {
	query := url.Values{}
	query.Set("actor", did)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var resp apiFeedResponse
	if err := c.get(ctx, "app.bsky.feed.getAuthorFeed", query, &resp); err != nil {
		return nil, err
	}

	page := &feed.FeedPage{Cursor: resp.Cursor}
	for i := range resp.Feed {
		page.Entries = append(page.Entries, mapFeedItem(&resp.Feed[i]))
	}
	return page, nil
}

// GetPost fetches a single post by AT-URI via app.bsky.feed.getPosts, with
// no thread expansion. Returns ErrNotFound when the post is deleted or not
// visible.
func (c *Client) GetPost(ctx context.Context, atURI string) (*feed.Post, error) {
	query := url.Values{}
	query.Set("uris", atURI)

	var resp apiPostsResponse
	if err := c.get(ctx, "app.bsky.feed.getPosts", query, &resp); err != nil {
		return nil, err
	}
	if len(resp.Posts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, atURI)
	}
	return mapPost(&resp.Posts[0]), nil
}

// GetProfile fetches a profile by handle or DID via app.bsky.actor.getProfile.
func (c *Client) GetProfile(ctx context.Context, actor string) (*feed.Profile, error) {
	query := url.Values{}
	query.Set("actor", actor)

	var resp apiProfile
	if err := c.get(ctx, "app.bsky.actor.getProfile", query, &resp); err != nil {
		return nil, err
	}
	return &feed.Profile{
		DID:            resp.DID,
		Handle:         resp.Handle,
		DisplayName:    resp.DisplayName,
		Description:    resp.Description,
		Avatar:         resp.Avatar,
		FollowersCount: resp.FollowersCount,
		FollowsCount:   resp.FollowsCount,
		PostsCount:     resp.PostsCount,
	}, nil
}

// get executes one XRPC query and decodes the JSON response. Non-2xx
// statuses become errors naming the endpoint and status; consecutive
// failures open the endpoint's circuit.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	if canAttempt, err := c.breaker.canAttempt(endpoint); !canAttempt {
		return err
	}

	reqURL := fmt.Sprintf("%s/xrpc/%s?%s", c.baseURL, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.recordFailure(endpoint, err)
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		// A missing resource is not an AppView outage.
		c.breaker.recordSuccess(endpoint)
		return fmt.Errorf("%w: %s returned 404", ErrNotFound, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Limit error body to 1KB to prevent unbounded reads
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := fmt.Errorf("%s: unexpected status %d: %s", endpoint, resp.StatusCode, string(body))
		c.breaker.recordFailure(endpoint, statusErr)
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.breaker.recordFailure(endpoint, err)
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	c.breaker.recordSuccess(endpoint)
	return nil
}
