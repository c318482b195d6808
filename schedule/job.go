// Package schedule provides the persistent job ledger and the proactive
// runners that execute due jobs and standing-instruction heartbeats.
package schedule

import "time"

// ScheduledJob represents one unit of scheduled work: a prompt handed to
// the agent when the job comes due.
type ScheduledJob struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	JobType      string     `json:"job_type"` // "one_shot" or "recurring"
	Schedule     string     `json:"schedule"` // RFC 3339 instant or 5-field cron expression
	Prompt       string     `json:"prompt"`
	NextRunAt    time.Time  `json:"next_run_at"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	Status       string     `json:"status"`
	FailureCount int        `json:"failure_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateJobInput is the operator-supplied portion of a new job
type CreateJobInput struct {
	Name        string
	Description string
	JobType     string
	Schedule    string
	Prompt      string
}

// Job type constants
const (
	TypeOneShot   = "one_shot"  // Runs once at the scheduled instant
	TypeRecurring = "recurring" // Runs on a cron schedule
)

// Status constants for scheduled jobs
const (
	StatusActive    = "active"    // Job is eligible for execution
	StatusPaused    = "paused"    // Job is temporarily paused by the operator
	StatusCompleted = "completed" // One-shot job ran successfully (terminal)
	StatusFailed    = "failed"    // Disabled after consecutive failures (terminal)
)

// ValidJobType reports whether t is a recognized job type
func ValidJobType(t string) bool {
	return t == TypeOneShot || t == TypeRecurring
}
