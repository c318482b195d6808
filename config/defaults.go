package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", defaultDatabasePath())

	// Agent defaults
	v.SetDefault("agent.model", "claude-sonnet-4-20250514")
	v.SetDefault("agent.max_tokens", 4096)

	// Scheduler defaults
	v.SetDefault("scheduler.tick_interval_seconds", 60)

	// Heartbeat defaults
	v.SetDefault("heartbeat.interval_minutes", 30)
	v.SetDefault("heartbeat.path", defaultHeartbeatPath())

	// Proactive defaults
	v.SetDefault("proactive.enabled", true)
	v.SetDefault("proactive.active_hours_start", 8)
	v.SetDefault("proactive.active_hours_end", 22)

	// Delivery defaults
	v.SetDefault("delivery.rate_per_minute", 20)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("agent.api_key", "VIGIL_AGENT_API_KEY")
	v.BindEnv("telegram.token", "VIGIL_TELEGRAM_TOKEN")
	v.BindEnv("database.path", "VIGIL_DATABASE_PATH")
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vigil.db"
	}
	return filepath.Join(home, ".vigil", "vigil.db")
}

func defaultHeartbeatPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "HEARTBEAT.md"
	}
	return filepath.Join(home, ".vigil", "HEARTBEAT.md")
}
