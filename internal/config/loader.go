package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, verifies and validates configuration.
// An empty configPath runs in env-only mode: defaults plus environment
// overrides.
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Read builds a Config without validating it. The file (if any) is checked
// against its .checksums manifest when one exists next to it.
func Read(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
		}

		if err := VerifyChecksums(absPath); err != nil && !errors.Is(err, ErrNoManifest) {
			return nil, err
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", absPath)
		}

		if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", absPath, err)
		}
		cfg.SourceFile = absPath
	}

	// Environment variables always win over the file.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// UnresolvedVars returns the names of ${VAR} placeholders left in the
// string-valued settings, keyed by their YAML path.
func UnresolvedVars(cfg *Config) map[string]string {
	fields := map[string]string{
		"webhook.public_key":  cfg.Webhook.PublicKey,
		"webhook.listen":      cfg.Webhook.Listen,
		"store.url":           cfg.Store.URL,
		"store.service_key":   cfg.Store.ServiceKey,
		"reminders.bot_token": cfg.Reminders.BotToken,
		"reminders.api_base":  cfg.Reminders.APIBase,
	}

	unresolved := make(map[string]string)
	for key, value := range fields {
		if matches := envVarPattern.FindStringSubmatch(value); len(matches) > 1 {
			unresolved[key] = matches[1]
		}
	}
	return unresolved
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	unresolved := UnresolvedVars(cfg)
	keys := make([]string, 0, len(unresolved))
	for key := range unresolved {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		return fmt.Errorf("%s: environment variable ${%s} is not set", key, unresolved[key])
	}

	if cfg.Webhook.PublicKey == "" {
		return fmt.Errorf("webhook.public_key is required (or set DISCORD_PUBLIC_KEY)")
	}
	if cfg.Webhook.SignatureSkew <= 0 {
		return fmt.Errorf("webhook.signature_skew must be positive")
	}

	if cfg.Store.URL == "" {
		return fmt.Errorf("store.url is required (or set SUPABASE_URL)")
	}
	if cfg.Store.ServiceKey == "" {
		return fmt.Errorf("store.service_key is required (or set SUPABASE_SERVICE_ROLE_KEY)")
	}
	if cfg.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive")
	}

	if cfg.Reminders.Enabled {
		if cfg.Reminders.BotToken == "" {
			return fmt.Errorf("reminders.bot_token is required when reminders are enabled (or set DISCORD_BOT_TOKEN)")
		}
		if cfg.Reminders.Schedule == "" {
			return fmt.Errorf("reminders.schedule is required when reminders are enabled")
		}
	}

	return nil
}
