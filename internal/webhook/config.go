package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattjoyce/cakeday/internal/config"
)

// FromGlobalConfig converts config.WebhookConfig to webhook.Config and parses
// the max body size.
func FromGlobalConfig(wc config.WebhookConfig) (Config, error) {
	maxBodySize, err := ParseSize(wc.MaxBodySize)
	if err != nil {
		return Config{}, fmt.Errorf("webhook: invalid max_body_size %q: %w", wc.MaxBodySize, err)
	}

	path := wc.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		return Config{}, fmt.Errorf("webhook: path %q must start with /", path)
	}

	return Config{
		Listen:      wc.Listen,
		Path:        path,
		MaxBodySize: maxBodySize,
	}, nil
}

// ParseSize parses size strings like "1MB", "512KB" or "2048576" to bytes.
// Returns DefaultMaxBodySize if empty.
func ParseSize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
