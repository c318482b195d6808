package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/vigil/cmd/vigil/commands"
	"github.com/teranos/vigil/logger"
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Vigil - proactive job scheduler for an always-on assistant",
	Long: `Vigil - a persistent scheduler that runs prompts on your behalf.

Vigil keeps a ledger of scheduled jobs (one-shot and recurring), runs
each due job's prompt against the model, and delivers anything worth
telling you over Telegram. A periodic heartbeat evaluates a standing
instructions document so things you care about surface without being
asked for twice.

Available commands:
  run     - Start the scheduler daemon
  jobs    - Manage scheduled jobs
  owner   - Manage the owner chat that receives messages
  config  - Manage configuration

Examples:
  vigil config init                       # Write a starter config file
  vigil owner set 123456789               # Point deliveries at your chat
  vigil jobs create --name standup \
    --type recurring --schedule "0 9 * * 1-5" \
    --prompt "Summarize my open reviews"  # Every weekday at 09:00
  vigil run                               # Start the daemon`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithLevel(false, logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.JobsCmd)
	rootCmd.AddCommand(commands.OwnerCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
