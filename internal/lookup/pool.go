package lookup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"celvest/pkg/celenium"
	"celvest/pkg/logger"
)

// Job is a single vesting lookup task
type Job struct {
	Address string
}

// Result carries the vesting records found for one address. Results are
// delivered in completion order, not submission order; the discovery sink
// is an unordered append so this is fine.
type Result struct {
	Job      Job
	Records  []celenium.VestingRecord
	Err      error
	Duration time.Duration
}

// VestingFetcher is the slice of the API client the pool needs
type VestingFetcher interface {
	FetchVestings(hash string) ([]celenium.VestingRecord, error)
}

// WorkerPool runs vesting lookups with bounded concurrency. Workers only
// produce in-memory results; all sink and checkpoint writes stay on the
// driver goroutine.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      VestingFetcher
	logger      logger.Logger
}

// NewWorkerPool creates a new lookup worker pool
func NewWorkerPool(numWorkers int, client VestingFetcher, log logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("starting lookup pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop signals that no more jobs will be submitted and waits for the
// workers to drain the queue before closing the result channel.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit adds a new lookup job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("lookup pool is shutting down")
	}
}

// Results returns the channel results are delivered on
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single vesting lookup. A failed lookup is recorded
// in the result and logged; it never aborts the batch.
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	records, err := wp.client.FetchVestings(job.Address)
	result.Duration = time.Since(start)

	if err != nil {
		result.Err = err
		wp.logger.ErrorWithFields("vesting lookup failed", map[string]interface{}{
			"worker_id": workerID,
			"address":   job.Address,
			"error":     err.Error(),
		})
		return result
	}

	result.Records = records

	wp.logger.DebugWithFields("vesting lookup completed", map[string]interface{}{
		"worker_id": workerID,
		"address":   job.Address,
		"records":   len(records),
		"duration":  result.Duration,
	})

	return result
}
