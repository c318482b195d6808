package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/vigil/errors"
)

// MaxFailures is the consecutive-failure count at which a job is
// disabled rather than retried.
const MaxFailures = 3

// Agent executes a job's prompt and returns the response text.
// Defined here, consumer-side, so the schedule package does not depend
// on any particular model client.
type Agent interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Deliverer pushes a proactive message to the owner. Returns false when
// the message could not be delivered (no owner configured, transport
// error); delivery failure never fails the run that produced it.
type Deliverer interface {
	Deliver(ctx context.Context, message string) bool
}

// Runner is the scheduler loop. It polls the ledger for due jobs at a
// fixed interval and dispatches each one on its own goroutine. At most
// one execution per job is in flight at a time; the poll itself never
// blocks on job execution.
type Runner struct {
	store     *Store
	execStore *ExecutionStore
	agent     Agent
	deliverer Deliverer
	interval  time.Duration
	hours     *ActiveHours

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.SugaredLogger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// RunnerConfig contains configuration for the scheduler loop
type RunnerConfig struct {
	Interval time.Duration // How often to poll for due jobs (default: 60 seconds)
	Hours    *ActiveHours  // Optional daily dispatch window; nil means always active
}

// DefaultRunnerConfig returns sensible defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Interval: 60 * time.Second,
	}
}

// NewRunner creates a scheduler loop over the given ledger
func NewRunner(store *Store, execStore *ExecutionStore, agent Agent, deliverer Deliverer, cfg RunnerConfig, log *zap.SugaredLogger) *Runner {
	return NewRunnerWithContext(context.Background(), store, execStore, agent, deliverer, cfg, log)
}

// NewRunnerWithContext creates a runner with a parent context
func NewRunnerWithContext(ctx context.Context, store *Store, execStore *ExecutionStore, agent Agent, deliverer Deliverer, cfg RunnerConfig, log *zap.SugaredLogger) *Runner {
	runnerCtx, cancel := context.WithCancel(ctx)

	interval := cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	return &Runner{
		store:     store,
		execStore: execStore,
		agent:     agent,
		deliverer: deliverer,
		interval:  interval,
		hours:     cfg.Hours,
		ctx:       runnerCtx,
		cancel:    cancel,
		logger:    log,
		inFlight:  make(map[string]struct{}),
	}
}

// Start begins the scheduler loop. The first poll happens immediately
// so jobs that came due while the process was down run without waiting
// a full interval.
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.run()
	r.logger.Infow("Scheduler started", "interval", r.interval)
}

// Stop cancels the loop and waits for it to exit. In-flight executions
// are signalled through the shared context but not awaited.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Infow("Scheduler stopped")
}

func (r *Runner) run() {
	defer r.wg.Done()

	r.Tick(time.Now())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case tickTime := <-ticker.C:
			r.Tick(tickTime)
		}
	}
}

// Tick runs one scheduling pass as of the given instant. Exported so
// tests can drive the loop with an injected clock. A panic in the pass
// is contained here; the loop survives to the next interval.
func (r *Runner) Tick(now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("Scheduler tick panicked", "panic", rec)
		}
	}()

	if r.hours != nil && !r.hours.Contains(now) {
		return
	}

	jobs, err := r.store.ListDueJobs(r.ctx, now)
	if err != nil {
		r.logger.Warnw("Scheduler tick error", "error", err)
		return
	}

	for _, job := range jobs {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		if !r.markInFlight(job.ID) {
			r.logger.Debugw("Skipping job still in flight",
				"job_id", job.ID,
				"name", job.Name)
			continue
		}

		r.wg.Add(1)
		go r.executeJob(job, now)
	}
}

// markInFlight reserves the job for execution. Returns false when a
// previous run of the same job has not finished yet.
func (r *Runner) markInFlight(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, running := r.inFlight[jobID]; running {
		return false
	}
	r.inFlight[jobID] = struct{}{}
	return true
}

func (r *Runner) clearInFlight(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, jobID)
}

// InFlightCount reports how many executions are currently running
func (r *Runner) InFlightCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inFlight)
}

// executeJob runs a single due job to completion. Runs on its own
// goroutine; the in-flight reservation is released on every exit path.
func (r *Runner) executeJob(job *ScheduledJob, now time.Time) {
	defer r.wg.Done()
	defer r.clearInFlight(job.ID)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("Job execution panicked",
				"job_id", job.ID,
				"name", job.Name,
				"panic", rec)
		}
	}()

	startTime := time.Now()
	r.logger.Infow("Executing scheduled job",
		"job_id", job.ID,
		"name", job.Name,
		"job_type", job.JobType)

	// Execution records are audit trail only - never block the run on them
	execID, err := r.execStore.CreateExecution(job.ID)
	if err != nil {
		r.logger.Errorw("Failed to create execution record",
			"job_id", job.ID,
			"error", err)
	}

	response, runErr := r.agent.Send(r.ctx, job.Prompt)

	if runErr == nil {
		// Delivery happens before the ledger update so a crash between
		// the two re-runs the job rather than silently dropping output.
		r.deliverer.Deliver(r.ctx, fmt.Sprintf("Scheduled: %s\n\n%s", job.Name, response))

		var nextRun *time.Time
		if job.JobType == TypeRecurring {
			next, err := NextRun(job.Schedule, now)
			if err != nil {
				runErr = errors.Wrapf(err, "failed to compute next run for job %s", job.ID)
			} else {
				nextRun = &next
			}
		}

		if runErr == nil {
			if err := r.store.UpdateAfterRun(job.ID, nextRun); err != nil {
				runErr = errors.Wrap(err, "failed to update job after run")
			}
		}
	}

	durationMs := int(time.Since(startTime).Milliseconds())

	if runErr != nil {
		if r.ctx.Err() != nil {
			// Shutdown cancelled the run mid-flight. The job did not
			// fail; it stays due and re-runs on the next start.
			r.logger.Infow("Job execution cancelled by shutdown",
				"job_id", job.ID,
				"name", job.Name)
			return
		}
		r.handleFailure(job, runErr)
		if execID != "" {
			if err := r.execStore.CompleteExecution(execID, ExecutionFailed, "", runErr.Error()); err != nil {
				r.logger.Errorw("Failed to update execution record", "execution_id", execID, "error", err)
			}
		}
		return
	}

	r.logger.Infow("Scheduled job OK",
		"job_id", job.ID,
		"name", job.Name,
		"duration_ms", durationMs)

	if execID != "" {
		if err := r.execStore.CompleteExecution(execID, ExecutionCompleted, response, ""); err != nil {
			r.logger.Errorw("Failed to update execution record", "execution_id", execID, "error", err)
		}
	}
}

// handleFailure increments the consecutive-failure counter and disables
// the job once it reaches MaxFailures, alerting the owner exactly once
// at the moment of disablement.
func (r *Runner) handleFailure(job *ScheduledJob, runErr error) {
	r.logger.Errorw("Scheduled job failed",
		"job_id", job.ID,
		"name", job.Name,
		"error", runErr)

	count, err := r.store.IncrementFailureCount(job.ID)
	if err != nil {
		r.logger.Errorw("Failed to increment failure count",
			"job_id", job.ID,
			"error", err)
		return
	}

	if count < MaxFailures {
		// Below the threshold the job stays active with its next_run_at
		// untouched, so it is retried on a subsequent tick.
		return
	}

	if err := r.store.UpdateJobStatus(job.ID, StatusFailed); err != nil {
		r.logger.Errorw("Failed to disable job",
			"job_id", job.ID,
			"error", err)
		return
	}

	r.logger.Warnw("Job disabled after repeated failures",
		"job_id", job.ID,
		"name", job.Name,
		"failures", count)

	r.deliverer.Deliver(r.ctx, fmt.Sprintf(
		"Scheduled job failed: %s\nDisabled after %d consecutive failures.",
		job.Name, count))
}
