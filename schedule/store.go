package schedule

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/vigil/errors"
)

const jobColumns = `id, name, description, job_type, schedule, prompt,
	       next_run_at, last_run_at, status, failure_count,
	       created_at, updated_at`

// Store is the job ledger: the single source of truth for job existence
// and status. Every mutation is a single SQL statement, so callers get
// per-operation atomicity from SQLite without extra locking.
type Store struct {
	db *sql.DB
}

// NewStore creates a new job ledger backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateJob allocates an id, persists a new active job with the given
// first due instant, and returns the full row.
func (s *Store) CreateJob(input CreateJobInput, nextRunAt time.Time) (*ScheduledJob, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	var description interface{}
	if input.Description != "" {
		description = input.Description
	}

	_, err := s.db.Exec(`
		INSERT INTO scheduled_jobs (
			id, name, description, job_type, schedule, prompt,
			next_run_at, status, failure_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`,
		id,
		input.Name,
		description,
		input.JobType,
		input.Schedule,
		input.Prompt,
		nextRunAt.UTC().Format(time.RFC3339),
		StatusActive,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scheduled job")
	}

	return s.GetJob(id)
}

// GetJob retrieves a scheduled job by ID
func (s *Store) GetJob(id string) (*ScheduledJob, error) {
	row := s.db.QueryRow(`
		SELECT `+jobColumns+`
		FROM scheduled_jobs
		WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("scheduled job not found: %s", id)
		}
		return nil, errors.Wrap(err, "failed to get scheduled job")
	}
	return job, nil
}

// FindByName returns the active job with the given name, if any.
// Used to avoid re-provisioning reserved jobs on startup.
func (s *Store) FindByName(name string) (*ScheduledJob, error) {
	row := s.db.QueryRow(`
		SELECT `+jobColumns+`
		FROM scheduled_jobs
		WHERE name = ? AND status = ?
		LIMIT 1
	`, name, StatusActive)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("no active job named %q", name)
		}
		return nil, errors.Wrap(err, "failed to find job by name")
	}
	return job, nil
}

// ListJobs returns jobs ordered by next_run_at ascending.
// By default only active jobs are returned; includeAll adds paused and
// terminal rows.
func (s *Store) ListJobs(includeAll bool) ([]*ScheduledJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM scheduled_jobs
		WHERE status = ?
		ORDER BY next_run_at ASC
	`
	args := []interface{}{StatusActive}
	if includeAll {
		query = `
			SELECT ` + jobColumns + `
			FROM scheduled_jobs
			ORDER BY next_run_at ASC
		`
		args = nil
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scheduled jobs")
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListDueJobs returns active jobs with next_run_at at or before asOf,
// ordered by next_run_at ASC (oldest due jobs first) for deterministic
// dispatch. Limited to 100 jobs per tick to bound a single dispatch burst;
// anything past the cap stays due and is picked up on the next tick.
// This is the sole admission query the runner uses.
func (s *Store) ListDueJobs(ctx context.Context, asOf time.Time) ([]*ScheduledJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM scheduled_jobs
		WHERE status = ? AND next_run_at <= ?
		ORDER BY next_run_at ASC
		LIMIT 100
	`, StatusActive, asOf.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list due jobs")
	}
	defer rows.Close()

	return collectJobs(rows)
}

// UpdateAfterRun records a successful execution.
// For recurring jobs (nextRunAt set) the schedule advances and the
// consecutive-failure counter resets. For one-shot jobs (nextRunAt nil)
// the job terminates in completed status.
func (s *Store) UpdateAfterRun(id string, nextRunAt *time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var result sql.Result
	var err error
	if nextRunAt != nil {
		result, err = s.db.Exec(`
			UPDATE scheduled_jobs
			SET last_run_at = ?, next_run_at = ?, failure_count = 0, updated_at = ?
			WHERE id = ?
		`, now, nextRunAt.UTC().Format(time.RFC3339), now, id)
	} else {
		result, err = s.db.Exec(`
			UPDATE scheduled_jobs
			SET last_run_at = ?, status = ?, updated_at = ?
			WHERE id = ?
		`, now, StatusCompleted, now, id)
	}
	if err != nil {
		return errors.Wrap(err, "failed to update job after run")
	}
	return requireRow(result, id)
}

// IncrementFailureCount atomically increments the consecutive-failure
// counter and returns the resulting count.
func (s *Store) IncrementFailureCount(id string) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := s.db.Exec(`
		UPDATE scheduled_jobs
		SET failure_count = failure_count + 1, updated_at = ?
		WHERE id = ?
	`, now, id)
	if err != nil {
		return 0, errors.Wrap(err, "failed to increment failure count")
	}
	if err := requireRow(result, id); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRow(`SELECT failure_count FROM scheduled_jobs WHERE id = ?`, id).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to read failure count")
	}
	return count, nil
}

// UpdateJobStatus performs a direct status transition (pause/resume/disable)
func (s *Store) UpdateJobStatus(id string, status string) error {
	result, err := s.db.Exec(`
		UPDATE scheduled_jobs
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return errors.Wrap(err, "failed to update job status")
	}
	return requireRow(result, id)
}

// DeleteJob removes a job row. Returns true if a row was removed.
func (s *Store) DeleteJob(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM scheduled_jobs WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete scheduled job")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}
	return rows > 0, nil
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return errors.NewNotFoundError("scheduled job not found: %s", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanJob reads one scheduled_jobs row. Timestamp parse failures are
// surfaced as errors since they indicate data corruption or a schema
// mismatch, not a transient condition.
func scanJob(row rowScanner) (*ScheduledJob, error) {
	var job ScheduledJob
	var description, lastRunAt sql.NullString
	var nextRunAt, createdAt, updatedAt string

	err := row.Scan(
		&job.ID,
		&job.Name,
		&description,
		&job.JobType,
		&job.Schedule,
		&job.Prompt,
		&nextRunAt,
		&lastRunAt,
		&job.Status,
		&job.FailureCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		job.Description = description.String
	}

	job.NextRunAt, err = time.Parse(time.RFC3339, nextRunAt)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse next_run_at for job %s", job.ID)
	}
	job.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse created_at for job %s", job.ID)
	}
	job.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse updated_at for job %s", job.ID)
	}
	if lastRunAt.Valid {
		t, err := time.Parse(time.RFC3339, lastRunAt.String)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse last_run_at for job %s", job.ID)
		}
		job.LastRunAt = &t
	}

	return &job, nil
}

func collectJobs(rows *sql.Rows) ([]*ScheduledJob, error) {
	jobs := []*ScheduledJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
