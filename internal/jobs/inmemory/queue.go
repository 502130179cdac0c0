package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/jobs"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = time.Second
)

// Queue is an in-memory job publisher and consumer built on a buffered
// channel. It suits single-instance deployments and tests.
type Queue struct {
	jobChan   chan *jobs.ReceiptScanJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool

	workers int
	backoff time.Duration
	log     zerolog.Logger
}

type QueueOption func(*Queue)

// WithBackoff sets the delay before the first retry; it doubles on each
// further attempt.
func WithBackoff(d time.Duration) QueueOption { return func(q *Queue) { q.backoff = d } }

func WithLogger(log zerolog.Logger) QueueOption {
	return func(q *Queue) { q.log = log.With().Str("component", "jobs").Logger() }
}

// NewQueue creates a queue holding up to bufferSize pending jobs, consumed
// by workers goroutines once started.
func NewQueue(bufferSize, workers int, store jobs.JobStore, opts ...QueueOption) *Queue {
	if workers < 1 {
		workers = 1
	}
	q := &Queue{
		jobChan:   make(chan *jobs.ReceiptScanJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   workers,
		backoff:   defaultBackoff,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// PublishReceiptScan saves the job as pending and enqueues it. It blocks
// while the buffer is full.
func (q *Queue) PublishReceiptScan(ctx context.Context, job *jobs.ReceiptScanJob) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = defaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start launches the workers. Each job is passed to handler.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs handler once and schedules a retry on failure until
// MaxRetries is reached.
func (q *Queue) processJob(ctx context.Context, job *jobs.ReceiptScanJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	q.save(ctx, job)

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying

		delay := q.backoff << (job.RetryCount - 1)
		q.log.Warn().Err(err).Str("job_id", job.JobID).Int("retry", job.RetryCount).Dur("delay", delay).Msg("Job failed, retrying")

		// Saved before the retry is scheduled so a fast retry cannot be
		// overwritten by this attempt's state.
		q.save(ctx, job)

		retry := *job
		retry.Status = jobs.JobStatusPending
		retry.StartedAt = nil
		retry.CompletedAt = nil
		time.AfterFunc(delay, func() {
			if err := q.PublishReceiptScan(ctx, &retry); err != nil {
				q.log.Error().Err(err).Str("job_id", retry.JobID).Msg("Failed to re-enqueue job")
			}
		})
		return
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
		q.log.Error().Err(err).Str("job_id", job.JobID).Msg("Job failed")
	}

	q.save(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.ReceiptScanJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to save job state")
	}
}

// Stop closes the queue and waits for in-flight jobs, or for ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
