package config

import (
	"os"
	"path/filepath"
)

// Discover returns the config file to load.
// Priority order: explicit path (--config flag), $CAKEDAY_CONFIG,
// ~/.config/cakeday/config.yaml, /etc/cakeday/config.yaml, ./config.yaml.
// It returns "" when none exist, which selects env-only mode.
func Discover(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if path := os.Getenv("CAKEDAY_CONFIG"); path != "" {
		return path
	}

	var candidates []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "cakeday", "config.yaml"))
	}
	candidates = append(candidates, "/etc/cakeday/config.yaml", "./config.yaml")

	for _, path := range candidates {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
