package schedule

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/vigil/errors"
)

// Execution statuses
const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// Execution is an audit record for a single job run
type Execution struct {
	ID          string     `json:"id"`
	JobID       string     `json:"job_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      string     `json:"status"`
	Response    string     `json:"response,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// ExecutionStore persists per-run audit records. Records are written
// best-effort: a failure here must never block or fail the run itself.
type ExecutionStore struct {
	db *sql.DB
}

// NewExecutionStore creates an execution history store backed by the given database
func NewExecutionStore(db *sql.DB) *ExecutionStore {
	return &ExecutionStore{db: db}
}

// CreateExecution records the start of a job run and returns the record ID
func (s *ExecutionStore) CreateExecution(jobID string) (string, error) {
	id := "EXC_" + uuid.NewString()

	_, err := s.db.Exec(`
		INSERT INTO job_executions (id, job_id, started_at, status)
		VALUES (?, ?, ?, ?)
	`, id, jobID, time.Now().UTC().Format(time.RFC3339), ExecutionRunning)
	if err != nil {
		return "", errors.Wrap(err, "failed to create execution record")
	}
	return id, nil
}

// CompleteExecution marks a run as finished. Response is stored on
// success, errMsg on failure; whichever is empty stays NULL.
func (s *ExecutionStore) CompleteExecution(id string, status string, response string, errMsg string) error {
	var responseVal, errVal interface{}
	if response != "" {
		responseVal = response
	}
	if errMsg != "" {
		errVal = errMsg
	}

	_, err := s.db.Exec(`
		UPDATE job_executions
		SET completed_at = ?, status = ?, response = ?, error = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), status, responseVal, errVal, id)
	if err != nil {
		return errors.Wrap(err, "failed to complete execution record")
	}
	return nil
}

// ListExecutions returns the most recent runs for a job, newest first
func (s *ExecutionStore) ListExecutions(jobID string, limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, job_id, started_at, completed_at, status, response, error
		FROM job_executions
		WHERE job_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, jobID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list executions")
	}
	defer rows.Close()

	executions := []*Execution{}
	for rows.Next() {
		var exec Execution
		var startedAt string
		var completedAt, response, errMsg sql.NullString

		if err := rows.Scan(&exec.ID, &exec.JobID, &startedAt, &completedAt, &exec.Status, &response, &errMsg); err != nil {
			return nil, errors.Wrap(err, "failed to scan execution row")
		}

		exec.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse started_at for execution %s", exec.ID)
		}
		if completedAt.Valid {
			t, err := time.Parse(time.RFC3339, completedAt.String)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse completed_at for execution %s", exec.ID)
			}
			exec.CompletedAt = &t
		}
		exec.Response = response.String
		exec.Error = errMsg.String

		executions = append(executions, &exec)
	}
	return executions, rows.Err()
}
