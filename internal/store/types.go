package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned for every failed remote call: transport errors,
// non-2xx responses and undecodable bodies alike. Callers only distinguish
// success from failure.
var ErrUnavailable = errors.New("store unavailable")

// Birthday is one saved record. (OwnerID, Name) is unique.
type Birthday struct {
	OwnerID string `json:"owner_user_id,omitempty"`
	Name    string `json:"name"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
}

// UnmarshalJSON accepts owner_user_id as a JSON string or a JSON number.
// Numeric ids keep their exact digits.
func (b *Birthday) UnmarshalJSON(data []byte) error {
	type plain Birthday
	var row struct {
		plain
		OwnerID json.RawMessage `json:"owner_user_id"`
	}
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	owner, err := decodeOwnerID(row.OwnerID)
	if err != nil {
		return err
	}
	*b = Birthday(row.plain)
	b.OwnerID = owner
	return nil
}

func decodeOwnerID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("owner_user_id: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return "", fmt.Errorf("owner_user_id %s is not an integer", raw)
	}
	return n.String(), nil
}

// Config holds the remote data API settings.
type Config struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co.
	URL string

	// ServiceKey is sent as both apikey and bearer token.
	ServiceKey string

	// Table holds birthday rows (default "birthdays").
	Table string

	// SentLogTable records reminder sends (default "sent_log").
	SentLogTable string

	// Timeout bounds each remote call (default DefaultTimeout).
	Timeout time.Duration
}

// Defaults
const (
	DefaultTable        = "birthdays"
	DefaultSentLogTable = "sent_log"
	DefaultTimeout      = 2500 * time.Millisecond

	maxResponseBytes = 4 << 20
)
