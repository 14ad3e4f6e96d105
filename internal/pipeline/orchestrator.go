package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/lexchunk/internal/config"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("pipeline stopped")
)

const cleanupInterval = 5 * time.Minute

// Orchestrator feeds submitted ingest jobs to a fixed pool of goroutines
// sharing one Worker.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger
	cfg    config.PipelineConfig

	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to begin processing.
func NewOrchestrator(cfg config.PipelineConfig, w *Worker, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: w,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches cfg.WorkerCount job goroutines and the job store sweeper.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := range o.cfg.WorkerCount {
		o.wg.Add(1)
		go o.run(workerCtx, i)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

func (o *Orchestrator) run(ctx context.Context, id int) {
	defer o.wg.Done()
	log := o.log.With("worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			log.Debug("job started", "job_id", job.ID, "source", job.Source)
			o.worker.Process(ctx, job)
		}
	}
}

// Stop cancels in-flight jobs and waits for the goroutines to exit. Jobs
// still queued are marked failed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	for job := range o.queue {
		job.SetFileData(nil)
		job.AddError(ErrStopped.Error())
		job.SetStatus(StatusFailed, "stopped")
	}
}

// Submit registers job and queues it. A source that is already in the
// store is not queued; the job is marked skipped right away.
func (o *Orchestrator) Submit(ctx context.Context, job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)

	done, err := o.worker.Store().IsProcessed(ctx, job.Source)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, string(KindIO))
		return fmt.Errorf("check %s: %w", job.Source, err)
	}
	if done {
		job.SetFileData(nil)
		job.SetStatus(StatusSkipped, "already processed")
		o.log.Info("job skipped, source already processed", "job_id", job.ID, "source", job.Source)
		return nil
	}

	select {
	case o.queue <- job:
		o.log.Info("job queued", "job_id", job.ID, "source", job.Source)
		return nil
	default:
		job.SetFileData(nil)
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the number of jobs waiting for a goroutine.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Worker returns the worker shared by all goroutines.
func (o *Orchestrator) Worker() *Worker {
	return o.worker
}
