package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BatchConfig holds settings for the batch worker.
type BatchConfig struct {
	Concurrency int
	JobTimeout  time.Duration
}

// BatchJob is one document queued for parsing. Index identifies the job in
// the caller's ordering.
type BatchJob struct {
	Index int
	Input UploadDocumentInput
}

// BatchResult is the outcome of a BatchJob.
type BatchResult struct {
	Index    int
	Name     string
	Document *ParsedDocument
	Err      error
	Elapsed  time.Duration
}

// BatchWorker parses documents concurrently, bounded by a semaphore.
type BatchWorker struct {
	svc    ParseService
	cfg    BatchConfig
	logger *zap.Logger
}

// NewBatchWorker creates a new BatchWorker.
func NewBatchWorker(svc ParseService, cfg BatchConfig, logger *zap.Logger) *BatchWorker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	return &BatchWorker{svc: svc, cfg: cfg, logger: logger}
}

// Run consumes jobs until the channel closes or ctx is canceled. The returned
// channel is closed once every in-flight job has reported.
func (w *BatchWorker) Run(ctx context.Context, jobs <-chan BatchJob) <-chan BatchResult {
	results := make(chan BatchResult, w.cfg.Concurrency)

	go func() {
		var wg sync.WaitGroup
		sem := make(chan struct{}, w.cfg.Concurrency)
		defer func() {
			wg.Wait()
			close(results)
			w.logger.Debug("service.BatchWorker: drained")
		}()

		for {
			var job BatchJob
			var ok bool
			select {
			case <-ctx.Done():
				w.logger.Info("service.BatchWorker: shutting down, waiting for in-flight parses")
				return
			case job, ok = <-jobs:
				if !ok {
					return
				}
			}

			select {
			case sem <- struct{}{}: // acquire
			case <-ctx.Done():
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }() // release
				results <- w.process(ctx, job)
			}()
		}
	}()

	return results
}

// ParseAll parses every input and returns results in input order.
func (w *BatchWorker) ParseAll(ctx context.Context, inputs []UploadDocumentInput) []BatchResult {
	jobs := make(chan BatchJob)
	go func() {
		defer close(jobs)
		for i := range inputs {
			select {
			case jobs <- BatchJob{Index: i, Input: inputs[i]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	out := make([]BatchResult, len(inputs))
	seen := make([]bool, len(inputs))
	for r := range w.Run(ctx, jobs) {
		out[r.Index] = r
		seen[r.Index] = true
	}
	for i := range out {
		if !seen[i] {
			out[i] = BatchResult{Index: i, Name: inputs[i].Name, Err: ctx.Err()}
		}
	}
	return out
}

func (w *BatchWorker) process(ctx context.Context, job BatchJob) BatchResult {
	// in-flight parses finish even when the batch is canceled
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	doc, err := w.svc.ParseUpload(jobCtx, &job.Input)
	res := BatchResult{
		Index:    job.Index,
		Name:     job.Input.Name,
		Document: doc,
		Err:      err,
		Elapsed:  time.Since(start),
	}
	if err != nil {
		w.logger.Warn("service.BatchWorker: parse failed",
			zap.String("document", job.Input.Name), zap.Error(err))
	}
	return res
}
