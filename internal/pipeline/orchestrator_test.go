package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lexchunk/internal/config"
)

func testPipelineConfig(workers, queue int) config.PipelineConfig {
	return config.PipelineConfig{WorkerCount: workers, MaxQueueSize: queue, JobTTL: time.Hour}
}

func waitStatus(t *testing.T, job *Job, want JobStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return job.Snapshot().Status == want
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOrchestrator_ProcessesAndSkipsResubmit(t *testing.T) {
	st := testStore(t)
	o := NewOrchestrator(testPipelineConfig(2, 10), testWorker(t, st, nil), nil)
	o.Start(context.Background())
	t.Cleanup(o.Stop)
	ctx := context.Background()

	first := NewJob("luat-dat-dai.txt", []byte(statute))
	require.NoError(t, o.Submit(ctx, first))
	waitStatus(t, first, StatusCompleted)
	assert.Same(t, first, o.GetJob(first.ID))
	assert.Equal(t, int64(1), first.Snapshot().Progress.FirstID)

	again := NewJob("luat-dat-dai.txt", []byte(statute))
	require.NoError(t, o.Submit(ctx, again))
	snap := again.Snapshot()
	assert.Equal(t, StatusSkipped, snap.Status)
	assert.Nil(t, again.FileData())
	assert.Zero(t, o.QueueDepth())
}

func TestOrchestrator_QueueFull(t *testing.T) {
	st := testStore(t)
	o := NewOrchestrator(testPipelineConfig(1, 1), testWorker(t, st, nil), nil)
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, NewJob("a.txt", []byte(statute))))
	assert.Equal(t, 1, o.QueueDepth())

	overflow := NewJob("b.txt", []byte(statute))
	err := o.Submit(ctx, overflow)
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, StatusFailed, overflow.Snapshot().Status)
	assert.Same(t, overflow, o.GetJob(overflow.ID))
}

func TestOrchestrator_StopFailsQueuedJobs(t *testing.T) {
	st := testStore(t)
	o := NewOrchestrator(testPipelineConfig(1, 4), testWorker(t, st, nil), nil)
	ctx := context.Background()

	queued := NewJob("a.txt", []byte(statute))
	require.NoError(t, o.Submit(ctx, queued))

	o.Stop()
	o.Stop()

	snap := queued.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, []string{ErrStopped.Error()}, snap.Progress.Errors)

	err := o.Submit(ctx, NewJob("b.txt", []byte(statute)))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestOrchestrator_StoreErrorFailsJob(t *testing.T) {
	st := testStore(t)
	o := NewOrchestrator(testPipelineConfig(1, 4), testWorker(t, st, nil), nil)
	require.NoError(t, st.Close())

	job := NewJob("a.txt", []byte(statute))
	require.Error(t, o.Submit(context.Background(), job))
	assert.Equal(t, StatusFailed, job.Snapshot().Status)
	assert.Zero(t, o.QueueDepth())
}
