// Package doctor validates cakeday configuration before the service starts.
package doctor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mattjoyce/cakeday/internal/config"
	"github.com/mattjoyce/cakeday/internal/scheduler"
	"github.com/mattjoyce/cakeday/internal/signature"
	"github.com/mattjoyce/cakeday/internal/webhook"
)

// responseDeadline is how long the platform waits for an interaction reply.
const responseDeadline = 3 * time.Second

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a configuration.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor for cfg. cfg should come from config.Read so that
// problems are reported rather than failing the load.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateServiceConfig(r)
	d.validateEnvVars(r)
	d.validateWebhook(r)
	d.validateStore(r)
	d.validateReminders(r)
	d.validateIntegrity(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateServiceConfig checks logging settings.
func (d *Doctor) validateServiceConfig(r *Result) {
	switch d.cfg.Service.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		d.addError(r, "service", "service.log_level",
			fmt.Sprintf("log_level must be one of debug, info, warn, error (got %q)", d.cfg.Service.LogLevel))
	}
	if d.cfg.Service.LogFormat != "json" && d.cfg.Service.LogFormat != "text" {
		d.addError(r, "service", "service.log_format",
			fmt.Sprintf("log_format must be json or text (got %q)", d.cfg.Service.LogFormat))
	}
}

// validateEnvVars reports ${VAR} placeholders whose variable is not set.
func (d *Doctor) validateEnvVars(r *Result) {
	unresolved := config.UnresolvedVars(d.cfg)
	fields := make([]string, 0, len(unresolved))
	for field := range unresolved {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		d.addError(r, "env_vars", field, fmt.Sprintf("environment variable ${%s} not set", unresolved[field]))
	}
}

// validateWebhook checks the interactions endpoint settings.
func (d *Doctor) validateWebhook(r *Result) {
	wc := d.cfg.Webhook

	if wc.PublicKey == "" {
		d.addError(r, "webhook", "webhook.public_key", "public_key is required (or set DISCORD_PUBLIC_KEY)")
	} else if !strings.Contains(wc.PublicKey, "${") {
		if _, err := signature.DecodePublicKey(wc.PublicKey); err != nil {
			d.addError(r, "webhook", "webhook.public_key", fmt.Sprintf("public_key must be 64 hex characters: %v", err))
		}
	}

	if wc.Listen == "" {
		d.addError(r, "webhook", "webhook.listen", "listen address is required")
	}
	if _, err := webhook.FromGlobalConfig(wc); err != nil {
		d.addError(r, "webhook", "webhook", err.Error())
	}

	switch {
	case wc.SignatureSkew <= 0:
		d.addError(r, "webhook", "webhook.signature_skew", "signature_skew must be positive")
	case wc.SignatureSkew > signature.DefaultMaxSkew:
		d.addWarning(r, "webhook", "webhook.signature_skew",
			fmt.Sprintf("signature_skew %s is wider than the usual %s replay window", wc.SignatureSkew, signature.DefaultMaxSkew))
	}
}

// validateStore checks the PostgREST settings.
func (d *Doctor) validateStore(r *Result) {
	sc := d.cfg.Store

	if sc.URL == "" {
		d.addError(r, "store", "store.url", "url is required (or set SUPABASE_URL)")
	} else if u, err := url.Parse(sc.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		d.addError(r, "store", "store.url", fmt.Sprintf("url %q must be an absolute http(s) URL", sc.URL))
	} else if u.Scheme == "http" {
		d.addWarning(r, "store", "store.url", "url uses plain http; the service key is sent in clear text")
	}

	if sc.ServiceKey == "" {
		d.addError(r, "store", "store.service_key", "service_key is required (or set SUPABASE_SERVICE_ROLE_KEY)")
	}
	if sc.Table == "" {
		d.addError(r, "store", "store.table", "table is required")
	}

	switch {
	case sc.Timeout <= 0:
		d.addError(r, "store", "store.timeout", "timeout must be positive")
	case sc.Timeout >= responseDeadline:
		d.addWarning(r, "store", "store.timeout",
			fmt.Sprintf("timeout %s leaves no headroom within the platform's %s reply deadline", sc.Timeout, responseDeadline))
	}
}

// validateReminders checks the reminder job when it is enabled.
func (d *Doctor) validateReminders(r *Result) {
	rc := d.cfg.Reminders

	if !rc.Enabled {
		if rc.BotToken != "" {
			d.addWarning(r, "reminders", "reminders.enabled", "bot_token is set but reminders are disabled")
		}
		return
	}

	if err := scheduler.Validate(rc.Schedule); err != nil {
		d.addError(r, "reminders", "reminders.schedule", err.Error())
	}
	if _, err := time.LoadLocation(rc.Timezone); err != nil {
		d.addError(r, "reminders", "reminders.timezone", fmt.Sprintf("unknown time zone %q", rc.Timezone))
	}
	if rc.BotToken == "" {
		d.addError(r, "reminders", "reminders.bot_token", "bot_token is required when reminders are enabled (or set DISCORD_BOT_TOKEN)")
	}
	if d.cfg.Store.SentLogTable == "" {
		d.addError(r, "reminders", "store.sent_log_table", "sent_log_table is required when reminders are enabled")
	}
}

// validateIntegrity checks the config file against its .checksums manifest.
func (d *Doctor) validateIntegrity(r *Result) {
	if d.cfg.SourceFile == "" {
		return
	}

	err := config.VerifyChecksums(d.cfg.SourceFile)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrNoManifest):
		d.addWarning(r, "integrity", config.ChecksumFile,
			"no checksums manifest; run 'cakeday config lock' to enable integrity verification")
	default:
		d.addError(r, "integrity", config.ChecksumFile, err.Error())
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
