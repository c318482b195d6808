package schedule

import (
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vigiltest "github.com/teranos/vigil/internal/testing"
)

func TestExecutionLifecycle(t *testing.T) {
	db := vigiltest.CreateTestDB(t)
	store := NewStore(db)
	execStore := NewExecutionStore(db)

	job, err := store.CreateJob(testInput("digest"), time.Now().UTC())
	require.NoError(t, err)

	execID, err := execStore.CreateExecution(job.ID)
	require.NoError(t, err)
	assert.Contains(t, execID, "EXC_")

	execs, err := execStore.ListExecutions(job.ID, 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, ExecutionRunning, execs[0].Status)
	assert.Nil(t, execs[0].CompletedAt)

	require.NoError(t, execStore.CompleteExecution(execID, ExecutionFailed, "", "model unavailable"))

	execs, err = execStore.ListExecutions(job.ID, 10)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, ExecutionFailed, execs[0].Status)
	assert.Equal(t, "model unavailable", execs[0].Error)
	assert.Empty(t, execs[0].Response)
	require.NotNil(t, execs[0].CompletedAt)
}

func TestListExecutionsLimit(t *testing.T) {
	db := vigiltest.CreateTestDB(t)
	store := NewStore(db)
	execStore := NewExecutionStore(db)

	job, err := store.CreateJob(testInput("digest"), time.Now().UTC())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := execStore.CreateExecution(job.ID)
		require.NoError(t, err)
	}

	execs, err := execStore.ListExecutions(job.ID, 3)
	require.NoError(t, err)
	assert.Len(t, execs, 3)
}
