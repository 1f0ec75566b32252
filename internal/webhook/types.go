package webhook

import (
	"context"

	"github.com/mattjoyce/cakeday/internal/interaction"
)

// RequestVerifier authenticates a raw request body against its signature
// headers.
type RequestVerifier interface {
	Verify(body []byte, signature, timestamp string) error
}

// Dispatcher produces the reply for an authenticated interaction.
type Dispatcher interface {
	Dispatch(ctx context.Context, in interaction.Interaction) interaction.Reply
}

// Config holds webhook server configuration.
type Config struct {
	// Listen is the TCP address to bind, e.g. "127.0.0.1:8787".
	Listen string

	// Path is the interactions endpoint URL path (default "/interactions").
	Path string

	// MaxBodySize is the maximum accepted request body in bytes (default: 1MB).
	MaxBodySize int64
}

// HealthzResponse is the JSON body of GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Default values
const (
	DefaultPath        = "/interactions"
	DefaultMaxBodySize = 1048576 // 1 MB
)
