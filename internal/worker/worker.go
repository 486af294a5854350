package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gitvec-labs/gitvec-core/internal/core/domain"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driven"
	"github.com/gitvec-labs/gitvec-core/internal/core/ports/driving"
)

// jobLockTTL bounds how long a worker may hold a job before another
// instance can claim it.
const jobLockTTL = 30 * time.Minute

// Worker processes tasks from the task queue.
// It runs the embedding pipeline for each embed_repo task.
type Worker struct {
	taskQueue driven.TaskQueue
	runner    driving.JobRunner
	lock      driven.DistributedLock // optional, nil when running single-instance
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Runner         driving.JobRunner
	Lock           driven.DistributedLock // can be nil
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent task processors
	DequeueTimeout int // Seconds to wait for a task before checking again
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		runner:         cfg.Runner,
		lock:           cfg.Lock,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	// Start worker goroutines
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	// Wait for workers to finish
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		// Dequeue a task with timeout
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			// No task available, continue
			continue
		}

		// Process the task
		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
// A pipeline failure lands on the job record, not on the task: the task
// is acked either way, and callers resubmit failed jobs as new jobs.
// Nack is reserved for tasks the worker could not run at all.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "tenant_id", task.TenantID)
	logger.Info("processing task")

	startTime := time.Now()

	if task.Type != domain.TaskTypeEmbedRepo {
		w.nack(ctx, task, fmt.Sprintf("unknown task type: %s", task.Type), logger)
		return
	}

	jobID := task.JobID()
	if jobID == "" {
		w.nack(ctx, task, "job_id not found in task payload", logger)
		return
	}

	// Guard against double processing across instances. A held lock
	// means another worker already owns this job, so this delivery is a
	// duplicate and gets dropped.
	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx, "job:"+jobID, jobLockTTL)
		if err != nil {
			w.nack(ctx, task, fmt.Sprintf("acquire job lock: %v", err), logger)
			return
		}
		if !acquired {
			w.nack(ctx, task, "job already being processed", logger)
			return
		}
		defer func() {
			if err := w.lock.Release(ctx, "job:"+jobID); err != nil {
				logger.Warn("failed to release job lock", "job_id", jobID, "error", err)
			}
		}()
	}

	runErr := w.runner.Run(ctx, task.JobID())
	duration := time.Since(startTime)

	if runErr != nil {
		// Already recorded on the job record by the pipeline
		logger.Error("job run failed",
			"job_id", jobID,
			"duration", duration,
			"error", runErr,
		)
	} else {
		logger.Info("task completed", "job_id", jobID, "duration", duration)
	}

	// Ack the task
	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

func (w *Worker) nack(ctx context.Context, task *domain.Task, reason string, logger *slog.Logger) {
	logger.Error("task rejected", "reason", reason)
	if err := w.taskQueue.Nack(ctx, task.ID, reason); err != nil {
		logger.Error("failed to nack task", "nack_error", err)
	}
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	// Check queue health
	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
