package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/vigil/errors"
)

func TestNextRunDaily(t *testing.T) {
	after := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)

	next, err := NextRun("0 9 * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), next)
}

func TestNextRunRollsToNextDay(t *testing.T) {
	after := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// At exactly 09:00 the next occurrence is tomorrow, never "now"
	next, err := NextRun("0 9 * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), next)
}

func TestNextRunWeekdays(t *testing.T) {
	// Friday evening rolls to Monday morning
	after := time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC)

	next, err := NextRun("0 9 * * 1-5", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Monday, next.Weekday())
}

func TestNextRunInvalidExpression(t *testing.T) {
	for _, expr := range []string{
		"",
		"not a cron",
		"* * * *",       // too few fields
		"0 0 * * * * *", // too many fields
		"61 9 * * *",    // minute out of range
	} {
		_, err := NextRun(expr, time.Now())
		assert.Error(t, err, "expression %q should be rejected", expr)
		assert.True(t, errors.IsInvalidScheduleError(err), "expression %q should yield schedule error", expr)
	}
}

func TestParseInstant(t *testing.T) {
	instant, err := ParseInstant("2026-09-01T09:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), instant.UTC())

	_, err = ParseInstant("tomorrow at nine")
	assert.True(t, errors.IsInvalidScheduleError(err))
}

func TestInitialNextRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)

	oneShot, err := InitialNextRun(TypeOneShot, "2026-09-01T09:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), oneShot.UTC())

	recurring, err := InitialNextRun(TypeRecurring, "0 9 * * *", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), recurring)

	_, err = InitialNextRun(TypeOneShot, "0 9 * * *", now)
	assert.Error(t, err, "cron expression is not a valid one_shot instant")

	_, err = InitialNextRun("hourly", "0 9 * * *", now)
	assert.Error(t, err)
}
