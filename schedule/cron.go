package schedule

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teranos/vigil/errors"
)

// cronParser accepts standard 5-field cron expressions only
// (minute hour day-of-month month day-of-week).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun computes the earliest instant strictly after the reference that
// matches the cron expression. Deterministic and side-effect-free; callers
// always pass an explicit reference so the result is testable.
func NextRun(cronExpr string, after time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(strings.TrimSpace(cronExpr))
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidSchedule, "cron expression %q: %v", cronExpr, err)
	}
	next := sched.Next(after)
	if next.IsZero() {
		// The cron library gives up after a bounded search when the
		// expression can never match (e.g. "0 0 31 2 *").
		return time.Time{}, errors.Wrapf(errors.ErrInvalidSchedule, "cron expression %q never matches", cronExpr)
	}
	return next, nil
}

// ParseInstant parses a one-shot schedule as an RFC 3339 timestamp
func ParseInstant(schedule string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(schedule))
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidSchedule, "timestamp %q: %v", schedule, err)
	}
	return t, nil
}

// InitialNextRun validates a new job's schedule and computes its first due
// instant: the parsed timestamp for one-shot jobs, the next cron match for
// recurring jobs. This is the only place schedule validation happens; a
// stored job's schedule is trusted at run time.
func InitialNextRun(jobType, schedule string, now time.Time) (time.Time, error) {
	switch jobType {
	case TypeRecurring:
		return NextRun(schedule, now)
	case TypeOneShot:
		return ParseInstant(schedule)
	default:
		return time.Time{}, errors.NewInvalidRequestError("unknown job type: %s", jobType)
	}
}
