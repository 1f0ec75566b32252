package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mattjoyce/cakeday/internal/reminder"
)

// Defaults
const (
	DefaultSchedule = "0 9 * * *"
	DefaultTimeout  = 10 * time.Minute
)

// Runner is a job run on every tick.
type Runner interface {
	Run(ctx context.Context) (reminder.Summary, error)
}

// Scheduler runs the reminder job on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	job     Runner
	timeout time.Duration
	logger  *slog.Logger
	entry   cron.EntryID
}

// Validate reports whether spec is a standard five-field cron expression or
// a descriptor such as "@daily".
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// New creates a scheduler that runs job at spec in loc.
// Overlapping ticks are skipped while a run is still in progress.
func New(spec string, loc *time.Location, job Runner, logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if err := Validate(spec); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	logger = logger.With("component", "scheduler")

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec:    spec,
		job:     job,
		timeout: DefaultTimeout,
		logger:  logger,
	}
	return s, nil
}

// Start schedules the job and blocks until ctx is cancelled. It then stops
// the cron loop and waits for a running job to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	s.entry = id

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec, "next_run", s.cron.Entry(id).Next)

	<-ctx.Done()

	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// tick performs a single reminder run with its own deadline.
func (s *Scheduler) tick(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	summary, err := s.job.Run(ctx)
	attrs := []any{
		"run_id", summary.RunID,
		"date", summary.Date,
		"owners", summary.Owners,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		s.logger.Error("reminder run failed", append(attrs, "error", err)...)
		return
	}
	s.logger.Info("reminder run completed", attrs...)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
