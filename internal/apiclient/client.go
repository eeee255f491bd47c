// Package apiclient implements the feedsync API boundary against the
// Paceon feed service over HTTP and websocket.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fullmoon-jpg/paceon-sub000/internal/feedsync"
)

const defaultTimeout = 15 * time.Second

// Client talks to the feed service. It implements feedsync.API; the
// websocket side in broadcast.go implements feedsync.Broadcaster.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the service at baseURL authenticating with
// the given bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the JSON shape of every service response: a success flag
// plus either a data payload or an error message.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// FetchPage retrieves one page of the feed.
func (c *Client) FetchPage(ctx context.Context, filter feedsync.Filter, page, pageSize int) (feedsync.PageResult, error) {
	q := url.Values{}
	q.Set("filter", string(filter))
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var out feedsync.PageResult
	if err := c.do(ctx, http.MethodGet, "/api/feed?"+q.Encode(), nil, &out); err != nil {
		return feedsync.PageResult{}, err
	}
	return out, nil
}

// FetchRecent retrieves items created after since.
func (c *Client) FetchRecent(ctx context.Context, since time.Time) ([]feedsync.Item, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339Nano))

	var out struct {
		Items []feedsync.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/feed/recent?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ToggleLike flips the caller's like on an item. The server decides the
// authoritative boolean and count.
func (c *Client) ToggleLike(ctx context.Context, itemID, _ string) (feedsync.LikeResult, error) {
	var out feedsync.LikeResult
	err := c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(itemID)+"/like", nil, &out)
	return out, err
}

// ToggleSave flips the caller's save on an item.
func (c *Client) ToggleSave(ctx context.Context, itemID, _ string) (feedsync.SaveResult, error) {
	var out feedsync.SaveResult
	err := c.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(itemID)+"/save", nil, &out)
	return out, err
}

// CreateItem publishes a new post.
func (c *Client) CreateItem(ctx context.Context, draft feedsync.Draft) (feedsync.Item, error) {
	var out feedsync.Item
	err := c.do(ctx, http.MethodPost, "/api/posts", draft, &out)
	return out, err
}

// UpdateItem patches an existing post.
func (c *Client) UpdateItem(ctx context.Context, itemID string, patch feedsync.Patch) (feedsync.Item, error) {
	var out feedsync.Item
	err := c.do(ctx, http.MethodPatch, "/api/posts/"+url.PathEscape(itemID), patch, &out)
	return out, err
}

// DeleteItem removes a post.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(itemID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return feedsync.NewTransientError(err)
		}
		buf = bytes.NewBuffer(raw)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return feedsync.NewTransientError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return feedsync.NewAbortedError(err)
		}
		return feedsync.NewTransientError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil && resp.StatusCode < 400 {
		return feedsync.NewTransientError(decodeErr)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return feedsync.NewRateLimitedError()
	case resp.StatusCode == http.StatusNotFound:
		return feedsync.NewNotFoundError(path)
	case resp.StatusCode >= 400 || !env.Success:
		msg := env.Error
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return feedsync.NewTransientError(errors.New(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return feedsync.NewTransientError(err)
	}
	return nil
}
