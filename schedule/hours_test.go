package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
}

func TestActiveHoursContains(t *testing.T) {
	hours := ActiveHours{Start: 8, End: 22, Loc: time.UTC}

	assert.False(t, hours.Contains(at(7)))
	assert.True(t, hours.Contains(at(8)), "window start is inclusive")
	assert.True(t, hours.Contains(at(15)))
	assert.True(t, hours.Contains(at(21)))
	assert.False(t, hours.Contains(at(22)), "window end is exclusive")
	assert.False(t, hours.Contains(at(23)))
}

func TestActiveHoursWrapsMidnight(t *testing.T) {
	hours := ActiveHours{Start: 22, End: 6, Loc: time.UTC}

	assert.True(t, hours.Contains(at(23)))
	assert.True(t, hours.Contains(at(2)))
	assert.False(t, hours.Contains(at(6)))
	assert.False(t, hours.Contains(at(12)))
	assert.True(t, hours.Contains(at(22)))
}

func TestActiveHoursEmptyWindow(t *testing.T) {
	hours := ActiveHours{Start: 9, End: 9, Loc: time.UTC}

	for hour := 0; hour < 24; hour++ {
		assert.False(t, hours.Contains(at(hour)), "hour %d", hour)
	}
}

func TestActiveHoursRespectsLocation(t *testing.T) {
	// 23:30 UTC is 18:30 in New York: inside a 8-22 window there,
	// outside the same window in UTC.
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	instant := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.True(t, ActiveHours{Start: 8, End: 22, Loc: ny}.Contains(instant))
	assert.False(t, ActiveHours{Start: 8, End: 22, Loc: time.UTC}.Contains(instant))
}
