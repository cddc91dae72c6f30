package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	// Job settings
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	pendingBuffer     = 256
)

var (
	// ErrJobNotFound is returned for unknown or already removed jobs.
	ErrJobNotFound = errors.New("job not found")
	// ErrDiscard marks a handler failure that must not be retried.
	ErrDiscard = errors.New("job discarded")
)

// Handler executes one job. Returning an error wrapping ErrDiscard fails the
// job permanently, any other error schedules a retry.
type Handler func(ctx context.Context, job *Job) error

// Queue runs jobs on a fixed pool of worker goroutines. Jobs may be delayed;
// delayed jobs still waiting when the queue stops are dropped.
type Queue struct {
	workers    int
	retryDelay time.Duration
	pending    chan string
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool

	stateMu  sync.Mutex
	handlers map[JobType]Handler
	jobs     map[string]Job
	timers   map[string]*time.Timer
	stats    map[JobStatus]int64
}

// NewQueue creates a new job queue
func NewQueue(workers int) *Queue {
	if workers <= 0 {
		workers = 1
	}

	return &Queue{
		workers:    workers,
		retryDelay: DefaultRetryDelay,
		pending:    make(chan string, pendingBuffer),
		stopCh:     make(chan struct{}),
		handlers:   make(map[JobType]Handler),
		jobs:       make(map[string]Job),
		timers:     make(map[string]*time.Timer),
		stats:      make(map[JobStatus]int64),
	}
}

// SetRetryDelay changes the base delay between attempts. The n-th retry
// waits n times this delay.
func (q *Queue) SetRetryDelay(d time.Duration) {
	q.stateMu.Lock()
	q.retryDelay = d
	q.stateMu.Unlock()
}

// Register installs the handler for a job type.
func (q *Queue) Register(jobType JobType, handler Handler) {
	q.stateMu.Lock()
	q.handlers[jobType] = handler
	q.stateMu.Unlock()
}

// Start starts the job queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops the workers and drops jobs that have not become due yet.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false

	q.stateMu.Lock()
	dropped := 0
	for id, timer := range q.timers {
		if timer.Stop() {
			dropped++
		}
		delete(q.timers, id)
	}
	q.stateMu.Unlock()
	if dropped > 0 {
		log.Warnf("[JobQueue] Dropped %d scheduled jobs", dropped)
	}

	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

// worker processes jobs from the queue
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Debugf("[JobQueue] Worker %d started", id)

	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Debugf("[JobQueue] Worker %d stopping", id)
			return
		case jobID := <-q.pending:
			job, ok := q.lookup(jobID)
			if !ok {
				continue
			}
			log.Debugf("[JobQueue] Worker %d processing job %s (Type: %s)", id, job.ID, job.Type)
			q.processJob(ctx, &job)
		}
	}
}

// EnqueueJob adds a new job that is due immediately
func (q *Queue) EnqueueJob(jobType JobType, payload map[string]interface{}) (*Job, error) {
	return q.EnqueueDelayed(jobType, payload, 0)
}

// EnqueueDelayed adds a new job that becomes due after delay.
func (q *Queue) EnqueueDelayed(jobType JobType, payload map[string]interface{}, delay time.Duration) (*Job, error) {
	q.stateMu.Lock()
	_, known := q.handlers[jobType]
	q.stateMu.Unlock()
	if !known {
		return nil, fmt.Errorf("unknown job type: %s", jobType)
	}

	now := time.Now()
	job := Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Status:     JobStatusScheduled,
		Payload:    payload,
		RunAt:      now.Add(delay),
		CreatedAt:  now,
		UpdatedAt:  now,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}

	q.updateJob(&job)
	q.schedule(job.ID, delay)

	log.Debugf("[JobQueue] Enqueued job %s (Type: %s, delay: %s)", job.ID, job.Type, delay)
	return &job, nil
}

// schedule pushes jobID onto the ready queue once delay has passed.
func (q *Queue) schedule(jobID string, delay time.Duration) {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()

	q.timers[jobID] = time.AfterFunc(delay, func() {
		q.stateMu.Lock()
		delete(q.timers, jobID)
		job, ok := q.jobs[jobID]
		if ok {
			job.MarkAsPending()
			q.jobs[jobID] = job
		}
		q.stateMu.Unlock()
		if !ok {
			return
		}

		select {
		case q.pending <- jobID:
		case <-q.stopCh:
		}
	})
}

// processJob processes a single job
func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(job)

	q.stateMu.Lock()
	handler, ok := q.handlers[job.Type]
	q.stateMu.Unlock()

	var err error
	if !ok {
		err = fmt.Errorf("%w: unknown job type: %s", ErrDiscard, job.Type)
	} else {
		err = q.run(ctx, handler, job)
	}

	if err != nil {
		log.Errorf("[JobQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())

		if !errors.Is(err, ErrDiscard) && job.IsRetryable() {
			log.Infof("[JobQueue] Retrying job %s (Attempt %d/%d)", job.ID, job.RetryCount, job.MaxRetries)
			job.MarkAsRetrying()
			q.updateJob(job)

			q.stateMu.Lock()
			delay := q.retryDelay * time.Duration(job.RetryCount)
			q.stateMu.Unlock()
			q.schedule(job.ID, delay)
			return
		}

		log.Errorf("[JobQueue] Job %s permanently failed after %d attempts", job.ID, job.RetryCount)
		q.updateJob(job)
		q.updateJobStats(JobStatusFailed, 1)
		return
	}

	log.Debugf("[JobQueue] Job %s completed successfully", job.ID)
	job.MarkAsCompleted()
	q.updateJobStats(JobStatusCompleted, 1)
	q.removeCompletedJob(job.ID)
}

// run calls the handler, turning a panic into a permanent failure so a bad
// job cannot take a worker down.
func (q *Queue) run(ctx context.Context, handler Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDiscard, r)
		}
	}()
	return handler(ctx, job)
}

// updateJob stores a copy of the job
func (q *Queue) updateJob(job *Job) {
	q.stateMu.Lock()
	q.jobs[job.ID] = *job
	q.stateMu.Unlock()
}

func (q *Queue) lookup(jobID string) (Job, bool) {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()

	job, ok := q.jobs[jobID]
	return job, ok
}

// removeCompletedJob forgets a completed job
func (q *Queue) removeCompletedJob(jobID string) {
	q.stateMu.Lock()
	delete(q.jobs, jobID)
	q.stateMu.Unlock()
}

// updateJobStats updates job statistics
func (q *Queue) updateJobStats(status JobStatus, delta int64) {
	q.stateMu.Lock()
	q.stats[status] += delta
	q.stateMu.Unlock()
}

// GetJob retrieves a job by ID. Completed jobs are no longer retrievable.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	job, ok := q.lookup(jobID)
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

// GetJobStats returns statistics about finished jobs
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()

	result := make(map[JobStatus]int64, len(q.stats))
	for status, count := range q.stats {
		result[status] = count
	}
	return result, nil
}

// GetQueueSize returns the number of jobs that have not finished yet
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	q.stateMu.Lock()
	defer q.stateMu.Unlock()

	var n int64
	for _, job := range q.jobs {
		if job.Status != JobStatusFailed {
			n++
		}
	}
	return n, nil
}
