package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/vigil/agent"
	"github.com/teranos/vigil/config"
	"github.com/teranos/vigil/db"
	"github.com/teranos/vigil/deliver"
	"github.com/teranos/vigil/errors"
	"github.com/teranos/vigil/logger"
	"github.com/teranos/vigil/schedule"
)

// RunCmd starts the scheduler daemon
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scheduler daemon",
	Long: `Start the scheduler daemon in foreground mode.

The daemon will:
- Poll the job ledger for due jobs and execute them against the model
- Evaluate the heartbeat instructions document periodically
- Deliver results to the owner chat over Telegram
- Run until interrupted (Ctrl+C) with graceful shutdown`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		if cfg.Agent.APIKey == "" {
			return errors.New("agent API key not configured (set VIGIL_AGENT_API_KEY or agent.api_key)")
		}
		if cfg.Telegram.Token == "" {
			return errors.New("Telegram token not configured (set VIGIL_TELEGRAM_TOKEN or telegram.token)")
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		hours, err := activeHours(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		client := agent.NewClient(agent.Config{
			APIKey:    cfg.Agent.APIKey,
			Model:     cfg.Agent.Model,
			MaxTokens: cfg.Agent.MaxTokens,
		})

		settings := db.NewSettings(database)
		limiter := deliver.NewLimiter(cfg.Delivery.RatePerMinute)
		telegram, err := deliver.NewTelegram(cfg.Telegram.Token, settings, limiter, logger.Logger)
		if err != nil {
			return err
		}

		store := schedule.NewStore(database)
		execStore := schedule.NewExecutionStore(database)

		runnerCfg := schedule.RunnerConfig{
			Interval: time.Duration(cfg.Scheduler.TickIntervalSeconds) * time.Second,
			Hours:    hours,
		}
		runner := schedule.NewRunnerWithContext(ctx, store, execStore, client, telegram, runnerCfg, logger.Logger)
		runner.Start()

		var heartbeat *schedule.Heartbeat
		if cfg.Proactive.Enabled {
			heartbeatCfg := schedule.HeartbeatConfig{
				Path:     cfg.Heartbeat.Path,
				Interval: time.Duration(cfg.Heartbeat.IntervalMinutes) * time.Minute,
				Hours:    hours,
			}
			heartbeat = schedule.NewHeartbeatWithContext(ctx, client, telegram, heartbeatCfg, logger.Logger)
			heartbeat.Start()
		} else {
			logger.Logger.Infow("Heartbeat disabled by config (proactive.enabled = false)")
		}

		// Pick up config file edits without a restart
		if configPath := config.FindProjectConfig(); configPath != "" {
			watcher, err := config.NewWatcher(configPath)
			if err != nil {
				logger.Logger.Warnw("Config watcher unavailable", "error", err)
			} else {
				watcher.Start()
				defer watcher.Stop()
			}
		}

		fmt.Printf("Vigil daemon started\n")
		fmt.Printf("  Database: %s\n", cfg.Database.Path)
		fmt.Printf("  Scheduler interval: %v\n", runnerCfg.Interval)
		if heartbeat != nil {
			fmt.Printf("  Heartbeat: every %dm from %s\n", cfg.Heartbeat.IntervalMinutes, cfg.Heartbeat.Path)
		}
		if hours != nil {
			fmt.Printf("  Active hours: %02d:00-%02d:00 (%s)\n", hours.Start, hours.End, hours.Loc)
		}
		fmt.Printf("\nPress Ctrl+C for graceful shutdown\n\n")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		fmt.Printf("\nShutting down...\n")

		if heartbeat != nil {
			heartbeat.Stop()
		}
		runner.Stop()
		cancel()

		fmt.Printf("Vigil daemon stopped\n")
		return nil
	},
}

// activeHours builds the dispatch window from config, or nil when the
// window covers the whole day.
func activeHours(cfg *config.Config) (*schedule.ActiveHours, error) {
	start := cfg.Proactive.ActiveHoursStart
	end := cfg.Proactive.ActiveHoursEnd
	if start == 0 && (end == 0 || end == 24) {
		return nil, nil
	}

	loc := time.Local
	if cfg.Proactive.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Proactive.Timezone)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid proactive.timezone %q", cfg.Proactive.Timezone)
		}
	}

	return &schedule.ActiveHours{Start: start, End: end, Loc: loc}, nil
}
