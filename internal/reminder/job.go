// Package reminder sends each owner one direct message per day listing the
// birthdays that fall on that day.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/mattjoyce/cakeday/internal/store"
)

//go:generate mockgen -destination=mocks/mock_reminder.go -package=mocks github.com/mattjoyce/cakeday/internal/reminder Store,Messenger

// DefaultTimezone decides which calendar day "today" is.
const DefaultTimezone = "America/Chicago"

// Store is the slice of the birthday store the job needs.
type Store interface {
	BirthdaysOn(ctx context.Context, month, day int) ([]store.Birthday, error)
	ReminderSent(ctx context.Context, ownerID, date string) (bool, error)
	RecordReminder(ctx context.Context, ownerID, date string) error
}

// Messenger delivers a direct message to a user.
type Messenger interface {
	SendDM(ctx context.Context, userID, content string) error
}

// Summary describes one run.
type Summary struct {
	RunID   string
	Date    string // YYYYMMDD in the job's zone
	Owners  int
	Sent    int
	Skipped int
	Failed  int
}

// Job computes today's reminders and sends them.
type Job struct {
	store     Store
	messenger Messenger
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Job.
type Option func(*Job)

// WithLocation sets the zone used to decide today's date.
func WithLocation(loc *time.Location) Option {
	return func(j *Job) {
		if loc != nil {
			j.location = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(j *Job) {
		j.now = now
	}
}

// New creates a reminder job. The default zone is DefaultTimezone, falling
// back to UTC when the zone database is unavailable.
func New(st Store, messenger Messenger, logger *slog.Logger, opts ...Option) *Job {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}

	j := &Job{
		store:     st,
		messenger: messenger,
		location:  loc,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Message renders the reminder text for one owner.
func Message(date time.Time, names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return fmt.Sprintf("🎉 Today (%s) is: %s", date.Format("01/02"), strings.Join(sorted, ", "))
}

// Run sends today's reminders. Failing to fetch the day's birthdays aborts
// the run; a failure for one owner is logged and the remaining owners are
// still processed. The returned error joins every per-owner failure.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	today := j.now().In(j.location)
	summary := Summary{
		RunID: uuid.NewString(),
		Date:  today.Format("20060102"),
	}
	logger := j.logger.With("run_id", summary.RunID, "date", summary.Date)

	rows, err := j.store.BirthdaysOn(ctx, int(today.Month()), today.Day())
	if err != nil {
		return summary, fmt.Errorf("fetch birthdays for %s: %w", summary.Date, err)
	}
	if len(rows) == 0 {
		logger.Info("no birthdays today")
		return summary, nil
	}

	byOwner := make(map[string][]string)
	for _, row := range rows {
		byOwner[row.OwnerID] = append(byOwner[row.OwnerID], row.Name)
	}
	owners := make([]string, 0, len(byOwner))
	for owner := range byOwner {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	summary.Owners = len(owners)

	var errs []error
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		sent, err := j.remind(ctx, owner, today, byOwner[owner])
		switch {
		case err != nil:
			summary.Failed++
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
			logger.Error("reminder failed", "owner_user_id", owner, "error", err)
		case sent:
			summary.Sent++
			logger.Info("reminder sent", "owner_user_id", owner, "count", len(byOwner[owner]))
		default:
			summary.Skipped++
			logger.Info("reminder already sent, skipping", "owner_user_id", owner)
		}
	}

	return summary, errors.Join(errs...)
}

// remind handles a single owner and reports whether a message went out.
func (j *Job) remind(ctx context.Context, owner string, today time.Time, names []string) (bool, error) {
	date := today.Format("20060102")

	already, err := j.store.ReminderSent(ctx, owner, date)
	if err != nil {
		return false, fmt.Errorf("check sent log: %w", err)
	}
	if already {
		return false, nil
	}

	if err := j.messenger.SendDM(ctx, owner, Message(today, names)); err != nil {
		return false, fmt.Errorf("send dm: %w", err)
	}

	if err := j.store.RecordReminder(ctx, owner, date); err != nil {
		return false, fmt.Errorf("record send: %w", err)
	}
	return true, nil
}
