package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/vigil/errors"
	"github.com/teranos/vigil/schedule"
)

// JobsCmd groups scheduled job management subcommands
var JobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage scheduled jobs",
	Long: `Manage the scheduled job ledger.

Examples:
  vigil jobs create --name digest --type recurring \
    --schedule "0 8 * * *" --prompt "Summarize overnight email"
  vigil jobs create --name reminder --type one_shot \
    --schedule 2026-09-01T09:00:00Z --prompt "Remind me about the renewal"
  vigil jobs ls --all
  vigil jobs pause <id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a scheduled job",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		jobType, _ := cmd.Flags().GetString("type")
		scheduleExpr, _ := cmd.Flags().GetString("schedule")
		prompt, _ := cmd.Flags().GetString("prompt")
		description, _ := cmd.Flags().GetString("description")
		ifAbsent, _ := cmd.Flags().GetBool("if-absent")

		if !schedule.ValidJobType(jobType) {
			return errors.NewInvalidRequestError("invalid job type %q (want %s or %s)",
				jobType, schedule.TypeOneShot, schedule.TypeRecurring)
		}

		nextRun, err := schedule.InitialNextRun(jobType, scheduleExpr, time.Now())
		if err != nil {
			return err
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		store := schedule.NewStore(database)

		// Idempotent provisioning for reserved jobs: an active job with
		// the same name short-circuits creation.
		if ifAbsent {
			if existing, err := store.FindByName(name); err == nil {
				fmt.Printf("Job %q already exists as %s\n", name, existing.ID)
				return nil
			} else if !errors.IsNotFoundError(err) {
				return err
			}
		}

		job, err := store.CreateJob(schedule.CreateJobInput{
			Name:        name,
			Description: description,
			JobType:     jobType,
			Schedule:    scheduleExpr,
			Prompt:      prompt,
		}, nextRun)
		if err != nil {
			return err
		}

		fmt.Printf("Created job %s\n", job.ID)
		fmt.Printf("  Name: %s\n", job.Name)
		fmt.Printf("  Type: %s\n", job.JobType)
		fmt.Printf("  Next run: %s\n", job.NextRunAt.Local().Format(time.RFC3339))
		return nil
	},
}

var jobsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		includeAll, _ := cmd.Flags().GetBool("all")

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		jobs, err := schedule.NewStore(database).ListJobs(includeAll)
		if err != nil {
			return err
		}

		if len(jobs) == 0 {
			fmt.Println("No scheduled jobs")
			return nil
		}

		for _, job := range jobs {
			fmt.Printf("%s  %-10s %-9s fail=%d  next=%s  %s\n",
				job.ID[:8],
				job.JobType,
				job.Status,
				job.FailureCount,
				job.NextRunAt.Local().Format("2006-01-02 15:04"),
				job.Name)
		}
		return nil
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a scheduled job as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		job, err := schedule.NewStore(database).GetJob(args[0])
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal job")
		}
		fmt.Println(string(out))
		return nil
	},
}

var jobsPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause an active job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionJob(args[0], schedule.StatusActive, schedule.StatusPaused)
	},
}

var jobsResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionJob(args[0], schedule.StatusPaused, schedule.StatusActive)
	},
}

var jobsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a scheduled job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		removed, err := schedule.NewStore(database).DeleteJob(args[0])
		if err != nil {
			return err
		}
		if !removed {
			return errors.NewNotFoundError("scheduled job not found: %s", args[0])
		}
		fmt.Printf("Deleted job %s\n", args[0])
		return nil
	},
}

// transitionJob moves a job from one status to another, refusing the
// move when the job is not in the expected starting status.
func transitionJob(id, from, to string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	store := schedule.NewStore(database)
	job, err := store.GetJob(id)
	if err != nil {
		return err
	}
	if job.Status != from {
		return errors.NewInvalidRequestError("job %s is %s, not %s", id, job.Status, from)
	}

	if err := store.UpdateJobStatus(id, to); err != nil {
		return err
	}
	fmt.Printf("Job %s is now %s\n", id, to)
	return nil
}

func init() {
	jobsCreateCmd.Flags().String("name", "", "Job name")
	jobsCreateCmd.Flags().String("type", "", "Job type: one_shot or recurring")
	jobsCreateCmd.Flags().String("schedule", "", "Cron expression (recurring) or RFC3339 instant (one_shot)")
	jobsCreateCmd.Flags().String("prompt", "", "Prompt to run when the job fires")
	jobsCreateCmd.Flags().String("description", "", "Optional description")
	jobsCreateCmd.Flags().Bool("if-absent", false, "Do nothing if an active job with this name already exists")
	jobsCreateCmd.MarkFlagRequired("name")
	jobsCreateCmd.MarkFlagRequired("type")
	jobsCreateCmd.MarkFlagRequired("schedule")
	jobsCreateCmd.MarkFlagRequired("prompt")

	jobsLsCmd.Flags().Bool("all", false, "Include paused, completed, and failed jobs")

	JobsCmd.AddCommand(jobsCreateCmd)
	JobsCmd.AddCommand(jobsLsCmd)
	JobsCmd.AddCommand(jobsGetCmd)
	JobsCmd.AddCommand(jobsPauseCmd)
	JobsCmd.AddCommand(jobsResumeCmd)
	JobsCmd.AddCommand(jobsRmCmd)
}
