package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/vigil/config"
	"github.com/teranos/vigil/errors"
)

// ConfigCmd groups configuration subcommands
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a config.toml with all settings at their defaults.

Writes to ~/.vigil/config.toml unless --path is given. Secrets
(agent.api_key, telegram.token) are left blank; prefer setting them via
the VIGIL_AGENT_API_KEY and VIGIL_TELEGRAM_TOKEN environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return errors.Wrap(err, "failed to determine home directory")
			}
			path = filepath.Join(home, ".vigil", "config.toml")
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		source := config.FindProjectConfig()
		if source == "" {
			source = "(defaults and environment only)"
		}
		fmt.Printf("Config source: %s\n\n", source)
		fmt.Printf("database.path             = %s\n", cfg.Database.Path)
		fmt.Printf("agent.model               = %s\n", cfg.Agent.Model)
		fmt.Printf("agent.max_tokens          = %d\n", cfg.Agent.MaxTokens)
		fmt.Printf("agent.api_key             = %s\n", maskSecret(cfg.Agent.APIKey))
		fmt.Printf("telegram.token            = %s\n", maskSecret(cfg.Telegram.Token))
		fmt.Printf("scheduler.tick_interval   = %ds\n", cfg.Scheduler.TickIntervalSeconds)
		fmt.Printf("heartbeat.interval        = %dm\n", cfg.Heartbeat.IntervalMinutes)
		fmt.Printf("heartbeat.path            = %s\n", cfg.Heartbeat.Path)
		fmt.Printf("proactive.enabled         = %t\n", cfg.Proactive.Enabled)
		fmt.Printf("proactive.active_hours    = %02d:00-%02d:00\n", cfg.Proactive.ActiveHoursStart, cfg.Proactive.ActiveHoursEnd)
		fmt.Printf("proactive.timezone        = %s\n", cfg.Proactive.Timezone)
		fmt.Printf("delivery.rate_per_minute  = %d\n", cfg.Delivery.RatePerMinute)
		return nil
	},
}

func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "****"
}

func init() {
	configInitCmd.Flags().String("path", "", "Where to write the config file")
	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}
