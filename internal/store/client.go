// Package store talks to the remote birthday collection over PostgREST.
//
// Every operation is a single HTTP call with no retry. The client never caches
// rows; the remote table is the only copy.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client is a PostgREST client for the birthdays and sent-log tables.
// It is safe for concurrent use.
type Client struct {
	base    *url.URL
	key     string
	table   string
	sentLog string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client from cfg, applying defaults for empty fields.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("store url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid store url %q: %w", cfg.URL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("store url %q must be http or https", cfg.URL)
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("store service key is required")
	}

	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.SentLogTable == "" {
		cfg.SentLogTable = DefaultSentLogTable
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		base:    base,
		key:     cfg.ServiceKey,
		table:   cfg.Table,
		sentLog: cfg.SentLogTable,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Upsert inserts b or, when (OwnerID, Name) already exists, merges the new
// month and day into the existing row.
func (c *Client) Upsert(ctx context.Context, b Birthday) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode birthday: %w", err)
	}

	q := url.Values{}
	q.Set("on_conflict", "owner_user_id,name")

	_, err = c.do(ctx, http.MethodPost, c.table, q, body, "resolution=merge-duplicates,return=minimal")
	return err
}

// ListFor returns every birthday saved by ownerID. No rows is not an error.
func (c *Client) ListFor(ctx context.Context, ownerID string) ([]Birthday, error) {
	q := url.Values{}
	q.Set("select", "name,month,day")
	q.Set("owner_user_id", eq(ownerID))

	rows, err := c.query(ctx, c.table, q)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].OwnerID = ownerID
	}
	return rows, nil
}

// RemoveByName deletes ownerID's record called name and returns how many rows
// were deleted. Zero means no such record.
func (c *Client) RemoveByName(ctx context.Context, ownerID, name string) (int, error) {
	q := url.Values{}
	q.Set("owner_user_id", eq(ownerID))
	q.Set("name", eq(name))
	q.Set("select", "name")

	data, err := c.do(ctx, http.MethodDelete, c.table, q, nil, "return=representation")
	if err != nil {
		return 0, err
	}

	var deleted []json.RawMessage
	if err := json.Unmarshal(data, &deleted); err != nil {
		return 0, fmt.Errorf("%w: decode delete response: %w", ErrUnavailable, err)
	}
	return len(deleted), nil
}

// BirthdaysOn returns every owner's records falling on month/day.
func (c *Client) BirthdaysOn(ctx context.Context, month, day int) ([]Birthday, error) {
	q := url.Values{}
	q.Set("select", "owner_user_id,name,month,day")
	q.Set("month", "eq."+strconv.Itoa(month))
	q.Set("day", "eq."+strconv.Itoa(day))

	return c.query(ctx, c.table, q)
}

// ReminderSent reports whether ownerID was already reminded on date
// (formatted YYYYMMDD).
func (c *Client) ReminderSent(ctx context.Context, ownerID, date string) (bool, error) {
	q := url.Values{}
	q.Set("select", "owner_user_id,yyyymmdd")
	q.Set("owner_user_id", eq(ownerID))
	q.Set("yyyymmdd", eq(date))

	data, err := c.do(ctx, http.MethodGet, c.sentLog, q, nil, "")
	if err != nil {
		return false, err
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("%w: decode sent log: %w", ErrUnavailable, err)
	}
	return len(rows) > 0, nil
}

// RecordReminder logs that ownerID was reminded on date. Repeating the call
// for the same pair is harmless.
func (c *Client) RecordReminder(ctx context.Context, ownerID, date string) error {
	body, err := json.Marshal(SentLogEntry{OwnerID: ownerID, Date: date})
	if err != nil {
		return fmt.Errorf("encode sent log entry: %w", err)
	}
	q := url.Values{}
	q.Set("on_conflict", "owner_user_id,yyyymmdd")

	_, err = c.do(ctx, http.MethodPost, c.sentLog, q, body, "resolution=merge-duplicates,return=minimal")
	return err
}

// SentLogEntry is one reminder send.
type SentLogEntry struct {
	OwnerID string `json:"owner_user_id"`
	Date    string `json:"yyyymmdd"`
}

func (c *Client) query(ctx context.Context, table string, q url.Values) ([]Birthday, error) {
	data, err := c.do(ctx, http.MethodGet, table, q, nil, "")
	if err != nil {
		return nil, err
	}
	var rows []Birthday
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode rows: %w", ErrUnavailable, err)
	}
	if rows == nil {
		rows = []Birthday{}
	}
	return rows, nil
}

func (c *Client) do(ctx context.Context, method, table string, q url.Values, body []byte, prefer string) ([]byte, error) {
	u := c.base.JoinPath("rest", "v1", table)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s response: %w", ErrUnavailable, method, table, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, method, table, resp.StatusCode)
	}
	return data, nil
}

// eq builds a PostgREST equality filter. The value is double-quoted so names
// containing reserved characters (commas, dots, parentheses) match exactly.
func eq(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return `eq."` + escaped + `"`
}
