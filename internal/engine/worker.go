package engine

import (
	"context"
	"sync"
)

// runWorkerPool fetches every job and returns one result per job, indexed by
// job.Seq. Jobs that were never dispatched because ctx ended come back with
// ctx's error.
func (m *Manager) runWorkerPool(ctx context.Context, runID string, jobs []DownloadJob) []DownloadResult {
	results := make([]DownloadResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workerCount := m.workers
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	jobCh := make(chan DownloadJob)
	resultCh := make(chan DownloadResult, workerCount)

	// Start the Workers
	var wg sync.WaitGroup
	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.worker(ctx, jobCh, resultCh)
		}()
	}

	// Dispatch Jobs
	go m.dispatchJobs(ctx, jobs, jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect Results
	done := make([]bool, len(jobs))
	for res := range resultCh {
		results[res.Job.Seq] = res
		done[res.Job.Seq] = true
		m.record(ctx, runID, res)
	}

	for i, ok := range done {
		if !ok {
			results[i] = DownloadResult{Job: jobs[i]}
			results[i].Outcome.Err = ctx.Err()
		}
	}

	return results
}

// dispatchJobs feeds the pool in order and stops as soon as ctx ends.
func (m *Manager) dispatchJobs(ctx context.Context, jobs []DownloadJob, jobCh chan<- DownloadJob) {
	defer close(jobCh)

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case jobCh <- job:
		}
	}
}

// worker pulls jobs from the channel and executes them until channel is closed
func (m *Manager) worker(ctx context.Context, jobs <-chan DownloadJob, results chan<- DownloadResult) {
	for job := range jobs {
		t := job.Target
		out := m.fetcher.Fetch(ctx, t.URL, t.LocalPath)
		results <- DownloadResult{Job: job, Outcome: out}
	}
}
