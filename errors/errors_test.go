package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/vigil/errors"
)

func TestSentinelWrapping(t *testing.T) {
	err := errors.Wrapf(errors.ErrNotFound, "scheduled job not found: %s", "abc123")

	assert.True(t, errors.IsNotFoundError(err))
	assert.False(t, errors.IsInvalidScheduleError(err))
	assert.Contains(t, err.Error(), "abc123")

	// Wrapping twice still matches the sentinel
	outer := errors.Wrap(err, "lookup failed")
	assert.True(t, errors.IsNotFoundError(outer))
}

func TestNewNotFoundError(t *testing.T) {
	err := errors.NewNotFoundError("setting not found: %s", "owner_chat_id")
	assert.True(t, errors.IsNotFoundError(err))
	assert.Contains(t, err.Error(), "owner_chat_id")
}

func TestInvalidScheduleError(t *testing.T) {
	err := errors.Wrapf(errors.ErrInvalidSchedule, "cron expression %q", "not a cron")
	assert.True(t, errors.IsInvalidScheduleError(err))
	assert.False(t, errors.IsNotFoundError(err))
}

func TestNilSafety(t *testing.T) {
	assert.False(t, errors.IsNotFoundError(nil))
	assert.False(t, errors.IsInvalidScheduleError(nil))
}

func TestHintsAndDetails(t *testing.T) {
	err := errors.New("delivery rate limit exceeded")
	err = errors.WithHint(err, "Lower delivery.rate_per_minute or wait a minute")
	err = errors.WithDetail(err, "Messages in window: 20")

	assert.Equal(t, []string{"Lower delivery.rate_per_minute or wait a minute"}, errors.GetAllHints(err))
	assert.Equal(t, []string{"Messages in window: 20"}, errors.GetAllDetails(err))
}
