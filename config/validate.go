package config

import "github.com/teranos/vigil/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Scheduler tick: 0 = use the built-in default, negative = invalid
	if c.Scheduler.TickIntervalSeconds < 0 {
		return errors.Newf("scheduler.tick_interval_seconds must be >= 0, got %d", c.Scheduler.TickIntervalSeconds)
	}

	if c.Heartbeat.IntervalMinutes < 0 {
		return errors.Newf("heartbeat.interval_minutes must be >= 0, got %d", c.Heartbeat.IntervalMinutes)
	}

	// Active hours are hour-of-day values; the window itself may wrap
	// past midnight (e.g. start=22, end=6), so only the range is checked.
	if c.Proactive.ActiveHoursStart < 0 || c.Proactive.ActiveHoursStart > 23 {
		return errors.Newf("proactive.active_hours_start must be in [0,23], got %d", c.Proactive.ActiveHoursStart)
	}
	if c.Proactive.ActiveHoursEnd < 0 || c.Proactive.ActiveHoursEnd > 24 {
		return errors.Newf("proactive.active_hours_end must be in [0,24], got %d", c.Proactive.ActiveHoursEnd)
	}

	if c.Delivery.RatePerMinute < 0 {
		return errors.Newf("delivery.rate_per_minute must be >= 0, got %d", c.Delivery.RatePerMinute)
	}

	return nil
}
