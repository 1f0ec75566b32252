// Package discord is a minimal REST client for sending direct messages as
// the bot user.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Defaults
const (
	DefaultAPIBase = "https://discord.com/api/v10"
	DefaultTimeout = 20 * time.Second

	maxErrorBody = 4 << 10
)

// ErrRequestFailed wraps every failed API call.
var ErrRequestFailed = errors.New("discord request failed")

// Client sends messages through the platform REST API.
// It is safe for concurrent use.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client authenticated with the bot token. An empty apiBase
// selects DefaultAPIBase.
func New(apiBase, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	base, err := url.Parse(strings.TrimRight(apiBase, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid discord api base %q: %w", apiBase, err)
	}

	c := &Client{
		base:  base,
		token: token,
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type createDMRequest struct {
	RecipientID string `json:"recipient_id"`
}

type channel struct {
	ID string `json:"id"`
}

type messageRequest struct {
	Content string `json:"content"`
}

// CreateDM opens (or fetches) the direct message channel with userID and
// returns its id.
func (c *Client) CreateDM(ctx context.Context, userID string) (string, error) {
	var ch channel
	if err := c.post(ctx, []string{"users", "@me", "channels"}, createDMRequest{RecipientID: userID}, &ch); err != nil {
		return "", err
	}
	if ch.ID == "" {
		return "", fmt.Errorf("%w: dm channel response has no id", ErrRequestFailed)
	}
	return ch.ID, nil
}

// SendMessage posts content to channelID.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	return c.post(ctx, []string{"channels", channelID, "messages"}, messageRequest{Content: content}, nil)
}

// SendDM delivers content to userID's direct message channel.
func (c *Client) SendDM(ctx context.Context, userID, content string) error {
	channelID, err := c.CreateDM(ctx, userID)
	if err != nil {
		return err
	}
	return c.SendMessage(ctx, channelID, content)
}

func (c *Client) post(ctx context.Context, path []string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	endpoint := c.base.JoinPath(path...)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %w", ErrRequestFailed, endpoint.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: POST %s: status %d: %s", ErrRequestFailed, endpoint.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrRequestFailed, err)
	}
	return nil
}
