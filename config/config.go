// Package config holds the vigil daemon configuration: where the job
// ledger lives, how to reach the agent and the delivery channel, and the
// tick/active-hours parameters for the proactive runners.
package config

// Config represents the full vigil configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	Proactive ProactiveConfig `mapstructure:"proactive"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
}

// DatabaseConfig configures the SQLite job ledger
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AgentConfig configures the language-model agent used to execute job prompts
type AgentConfig struct {
	APIKey    string `mapstructure:"api_key"`    // Anthropic API key (env: VIGIL_AGENT_API_KEY)
	Model     string `mapstructure:"model"`      // Model identifier
	MaxTokens int    `mapstructure:"max_tokens"` // Response token cap
}

// TelegramConfig configures the Telegram delivery channel
type TelegramConfig struct {
	Token string `mapstructure:"token"` // Bot token (env: VIGIL_TELEGRAM_TOKEN)
}

// SchedulerConfig configures the scheduled-job runner.
// The tick interval only affects latency to pick up due jobs, never
// correctness, so it is not exposed as a tunable in the documented surface.
type SchedulerConfig struct {
	TickIntervalSeconds int `mapstructure:"tick_interval_seconds"`
}

// HeartbeatConfig configures the standing-instructions heartbeat
type HeartbeatConfig struct {
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	Path            string `mapstructure:"path"` // Standing-instructions document
}

// ProactiveConfig gates all proactive execution and delivery
type ProactiveConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	ActiveHoursStart int    `mapstructure:"active_hours_start"` // Hour of day, inclusive
	ActiveHoursEnd   int    `mapstructure:"active_hours_end"`   // Hour of day, exclusive
	Timezone         string `mapstructure:"timezone"`           // IANA name; empty = system local
}

// DeliveryConfig tunes the notification pipeline
type DeliveryConfig struct {
	RatePerMinute int `mapstructure:"rate_per_minute"` // Max outbound messages per minute
}
