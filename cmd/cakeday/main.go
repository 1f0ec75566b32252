package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/cakeday/internal/config"
	"github.com/mattjoyce/cakeday/internal/discord"
	"github.com/mattjoyce/cakeday/internal/dispatch"
	"github.com/mattjoyce/cakeday/internal/doctor"
	"github.com/mattjoyce/cakeday/internal/lock"
	"github.com/mattjoyce/cakeday/internal/log"
	"github.com/mattjoyce/cakeday/internal/reminder"
	"github.com/mattjoyce/cakeday/internal/scheduler"
	"github.com/mattjoyce/cakeday/internal/signature"
	"github.com/mattjoyce/cakeday/internal/store"
	"github.com/mattjoyce/cakeday/internal/webhook"
)

const version = "0.3.0"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		os.Exit(runSystemNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "remind":
		os.Exit(runRemindNoun(args))

	// --- ROOT ALIASES ---
	case "start":
		os.Exit(runStart(args))
	case "doctor":
		os.Exit(runConfigCheck(args))
	case "version":
		fmt.Println(versionString())
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`cakeday - Birthday bot for chat slash commands

Usage:
  cakeday <noun> <action> [flags]

Core Resources (Nouns):
  system    Service lifecycle
  config    Configuration and integrity
  remind    Daily birthday reminders

System Commands:
  system start      Serve the interactions endpoint (and reminder schedule)

Config Commands:
  config check      Validate settings and integrity
  config lock       Record the config file's integrity hash
  config show       Print the resolved configuration (secrets redacted)

Remind Commands:
  remind run        Send today's reminders once and exit

General:
  version           Show version information
  help              Show this help message

Settings come from --config, $CAKEDAY_CONFIG, ~/.config/cakeday/config.yaml,
/etc/cakeday/config.yaml or ./config.yaml, and environment variables
(DISCORD_PUBLIC_KEY, SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY, DISCORD_BOT_TOKEN).
A .env file in the working directory is loaded first.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: cakeday system start [--config PATH]")
			fmt.Println("Serve the interactions endpoint in the foreground.")
			return 0
		}
		return runStart(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: cakeday config check [--config PATH] [--format human|json] [--json] [--strict]")
			fmt.Println("Validate settings and integrity. Exit 1 on errors, 2 on warnings with --strict.")
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: cakeday config lock [--config PATH]")
			fmt.Println("Write .checksums next to the config file.")
			return 0
		}
		return runConfigLock(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: cakeday config show [--config PATH] [--json]")
			fmt.Println("Print the resolved configuration with secrets redacted.")
			return 0
		}
		return runConfigShow(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runRemindNoun(args []string) int {
	if len(args) < 1 {
		printRemindNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printRemindNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "run":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: cakeday remind run [--config PATH] [--json]")
			fmt.Println("Send today's reminders once. Suitable for an external cron.")
			return 0
		}
		return runRemind(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown remind action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: cakeday system <action>")
	fmt.Fprintln(w, "Actions: start")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: cakeday config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock, show")
}

func printRemindNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: cakeday remind <action> [flags]")
	fmt.Fprintln(w, "Actions: run")
}

// --- ACTION IMPLEMENTATIONS ---

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	path := config.Discover(*configPath)
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("cakeday starting",
		"version", version,
		"command_table", dispatch.CommandTableVersion,
		"config", describeSource(cfg))

	storeClient, err := newStore(cfg)
	if err != nil {
		logger.Error("failed to configure store", "error", err)
		return 1
	}

	server, err := newWebhookServer(cfg, storeClient, log.WithComponent("webhook"))
	if err != nil {
		logger.Error("failed to configure webhook", "error", err)
		return 1
	}

	// Everything that can fail is built before any component starts.
	var sched *scheduler.Scheduler
	if cfg.Reminders.Enabled {
		sched, err = newScheduler(cfg, storeClient, log.WithComponent("reminder"))
		if err != nil {
			logger.Error("failed to configure reminders", "error", err)
			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("webhook: %w", err)
		}
	}()

	if sched != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sched.Start(ctx); err != nil {
				errCh <- fmt.Errorf("scheduler: %w", err)
			}
		}()
		logger.Info("reminder schedule enabled", "schedule", cfg.Reminders.Schedule, "timezone", cfg.Reminders.Timezone)
	}

	logger.Info("cakeday running (press Ctrl+C to stop)", "listen", cfg.Webhook.Listen, "path", cfg.Webhook.Path)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		wg.Wait()
		return 1
	}

	wg.Wait()
	logger.Info("cakeday stopped")
	return 0
}

func runRemind(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	jsonOut := fs.Bool("json", false, "Print the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(config.Discover(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if cfg.Reminders.BotToken == "" {
		fmt.Fprintln(os.Stderr, "Error: reminders.bot_token is required (or set DISCORD_BOT_TOKEN)")
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)

	storeClient, err := newStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure store: %v\n", err)
		return 1
	}
	job, err := newReminderJob(cfg, storeClient, log.WithComponent("reminder"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure reminders: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, runErr := job.Run(ctx)
	if *jsonOut {
		data, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Reminder run %s for %s: %d owner(s), %d sent, %d skipped, %d failed\n",
			summary.RunID, summary.Date, summary.Owners, summary.Sent, summary.Skipped, summary.Failed)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Reminder run failed: %v\n", runErr)
		return 1
	}
	return 0
}

func runConfigCheck(args []string) int {
	var configPath string
	var strict, jsonOut bool
	var format string

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	fs.StringVar(&format, "format", "human", "Output format (human, json)")
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if jsonOut {
		format = "json"
	}

	cfg, err := config.Read(config.Discover(configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	result := doctor.New(cfg).Validate()

	switch format {
	case "json":
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	default:
		fmt.Printf("Checking %s\n", describeSource(cfg))
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	path := config.Discover(*configPath)
	if path == "" {
		fmt.Fprintln(os.Stderr, "No config file found; nothing to lock (env-only mode)")
		return 1
	}

	manifest, err := config.Lock(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	for name, hash := range manifest.Hashes {
		fmt.Printf("  HASH %s: %s\n", name, hash)
	}
	fmt.Printf("Successfully locked %s\n", path)
	return 0
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Read(config.Discover(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}
	redacted := redact(cfg)

	if *jsonOut {
		data, _ := json.MarshalIndent(redacted, "", "  ")
		fmt.Println(string(data))
	} else {
		data, _ := yaml.Marshal(redacted)
		fmt.Print(string(data))
	}
	return 0
}

// --- WIRING ---

func newStore(cfg *config.Config) (*store.Client, error) {
	return store.New(store.Config{
		URL:          cfg.Store.URL,
		ServiceKey:   cfg.Store.ServiceKey,
		Table:        cfg.Store.Table,
		SentLogTable: cfg.Store.SentLogTable,
		Timeout:      cfg.Store.Timeout,
	})
}

func newWebhookServer(cfg *config.Config, st dispatch.Store, logger *slog.Logger) (*webhook.Server, error) {
	webhookConfig, err := webhook.FromGlobalConfig(cfg.Webhook)
	if err != nil {
		return nil, err
	}

	verifier, err := signature.NewVerifier(cfg.Webhook.PublicKey, signature.WithMaxSkew(cfg.Webhook.SignatureSkew))
	if err != nil {
		return nil, fmt.Errorf("webhook.public_key: %w", err)
	}

	return webhook.New(webhookConfig, verifier, dispatch.New(st, logger), logger), nil
}

// lockedJob runs the reminder job while holding the host-wide run lock, so a
// scheduled run and a manual "remind run" never overlap.
type lockedJob struct {
	job  *reminder.Job
	path string
}

func (j *lockedJob) Run(ctx context.Context) (reminder.Summary, error) {
	l, err := lock.Acquire(j.path)
	if err != nil {
		return reminder.Summary{}, fmt.Errorf("reminder run lock: %w", err)
	}
	defer l.Release()

	return j.job.Run(ctx)
}

func newReminderJob(cfg *config.Config, st reminder.Store, logger *slog.Logger) (*lockedJob, error) {
	loc, err := time.LoadLocation(cfg.Reminders.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reminders.timezone: %w", err)
	}

	messenger, err := discord.New(cfg.Reminders.APIBase, cfg.Reminders.BotToken)
	if err != nil {
		return nil, err
	}

	path := cfg.Reminders.LockFile
	if path == "" {
		path = lock.DefaultPath()
	}
	return &lockedJob{
		job:  reminder.New(st, messenger, logger, reminder.WithLocation(loc)),
		path: path,
	}, nil
}

func newScheduler(cfg *config.Config, st reminder.Store, logger *slog.Logger) (*scheduler.Scheduler, error) {
	job, err := newReminderJob(cfg, st, logger)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Reminders.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reminders.timezone: %w", err)
	}
	return scheduler.New(cfg.Reminders.Schedule, loc, job, logger)
}

func versionString() string {
	return fmt.Sprintf("cakeday version %s (command table v%d)", version, dispatch.CommandTableVersion)
}

func describeSource(cfg *config.Config) string {
	if cfg.SourceFile == "" {
		return "environment only"
	}
	return cfg.SourceFile
}

const redactedValue = "[redacted]"

// redact returns a copy of cfg safe to print.
func redact(cfg *config.Config) config.Config {
	out := *cfg
	if out.Store.ServiceKey != "" {
		out.Store.ServiceKey = redactedValue
	}
	if out.Reminders.BotToken != "" {
		out.Reminders.BotToken = redactedValue
	}
	return out
}
