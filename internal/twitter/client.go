// Package twitter is a small client for the Twitter v2 user lookup endpoint.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/profilehue/profilehue-server/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public API host.
	DefaultBaseURL = "https://api.twitter.com"

	defaultRPS     = 1.0
	defaultBurst   = 3
	defaultTimeout = 15 * time.Second

	userFields = "profile_image_url,profile_banner_url"
	// maxBody bounds error and user payloads; a user object is well under 4KB.
	maxBody = 1 << 20
)

// Config holds client settings.
type Config struct {
	BaseURL     string
	BearerToken string
	RPS         float64
}

// Client is a rate-limited Twitter API client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
	baseURL string
	token   string
}

// New creates a new Twitter client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(cfg.RPS, defaultBurst),
		logger:  logger,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.BearerToken,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// LookupUser fetches a user by handle, including profile and banner image URLs.
// The profile image URL is upgraded to the 400x400 variant.
func (c *Client) LookupUser(ctx context.Context, handle string) (*User, error) {
	if c.token == "" {
		return nil, wrapError("lookupUser", handle, ErrNoToken)
	}

	query := url.Values{}
	query.Set("user.fields", userFields)
	endpoint := c.baseURL + "/2/users/by/username/" + url.PathEscape(handle) + "?" + query.Encode()

	body, err := c.doRequest(ctx, "users/by/username", endpoint)
	if err != nil {
		return nil, wrapError("lookupUser", handle, err)
	}

	var resp rawUserResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("lookupUser", handle, fmt.Errorf("parse response: %w", err))
	}

	// The API answers 200 with an errors array for unknown or suspended users.
	if resp.Data == nil {
		if len(resp.Errors) > 0 {
			c.logger.Debug("twitter lookup returned errors",
				"handle", handle,
				"title", resp.Errors[0].Title,
				"detail", resp.Errors[0].Detail,
			)
		}
		return nil, wrapError("lookupUser", handle, ErrNotFound)
	}

	user := *resp.Data
	user.ProfileImageURL = FullSizeImageURL(user.ProfileImageURL)
	return &user, nil
}

// doRequest executes a GET with rate limiting, keyed by endpoint.
func (c *Client) doRequest(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "profilehue/1.0")

	c.logger.Debug("twitter request", "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
