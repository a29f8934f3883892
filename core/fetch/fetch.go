// Package fetch resolves Instagram post links into downloadable media via the
// upstream resolver API.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plushpepe/instabot/core/logger"
)

// ErrNotFound indicates the resolver answered but carried no media, typically
// a deleted post or an invalid link.
var ErrNotFound = errors.New("no media found for link")

// ServiceError reports a resolver failure that is not the caller's fault:
// transport errors, non-200 statuses, malformed payloads.
type ServiceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

// Unwrap exposes the wrapped cause.
func (e *ServiceError) Unwrap() error { return e.Err }

// Item is one piece of media in a resolved post.
type Item struct {
	IsVideo  bool   `json:"is_video"`
	VideoURL string `json:"video_url"`
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// envelope mirrors the resolver's response shape.
type envelope struct {
	OK     bool `json:"ok"`
	Result struct {
		Result []Item `json:"result"`
	} `json:"result"`
}

// Client calls the resolver API.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

// New constructs a Client. The HTTP client is shared with the rest of the bot
// so resolver calls get the same retry behavior; timeout caps a single
// resolver call and may be zero to disable the cap.
func New(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		http:    httpClient,
	}
}

// Post resolves a post link into its media items. ErrNotFound means the link
// resolved to nothing; *ServiceError means the resolver itself failed.
func (c *Client) Post(ctx context.Context, link string) ([]Item, error) {
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("type", "post")
	q.Set("url", link)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &ServiceError{Op: "build request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: "call resolver", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Op: "call resolver", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ServiceError{Op: "read response", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ServiceError{Op: "decode response", Err: err}
	}

	logger.Debug(ctx, "fetch", "resolver answered",
		slog.Bool("ok", env.OK),
		slog.Int("items", len(env.Result.Result)),
		slog.Duration("took", logger.Took(start)),
	)

	if !env.OK || len(env.Result.Result) == 0 {
		return nil, ErrNotFound
	}
	return env.Result.Result, nil
}

// IsPostLink reports whether the text looks like an Instagram post link.
// Plain mentions of instagram.com without a scheme are not treated as links.
func IsPostLink(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return false
	}
	return strings.Contains(trimmed, "instagram.com")
}
