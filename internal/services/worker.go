package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"jobly/cv-analyzer/internal/metrics"
)

type BatchJob struct {
	Path      string
	SubjectID string
}

type BatchResult struct {
	Job    BatchJob
	Result *AnalysisResult
	Err    error
}

// Worker runs batch analyses on a fixed number of goroutines. Results must
// be drained while jobs are enqueued; Stop closes the results channel once
// every accepted job has been reported.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(job BatchJob) bool
	Results() <-chan BatchResult
}

type worker struct {
	analyzer    AnalyzerService
	jobQueue    chan BatchJob
	results     chan BatchResult
	concurrency int
	wg          sync.WaitGroup
	mu          sync.Mutex
	stopped     bool
	stopOnce    sync.Once
	ctx         context.Context
	log         *zap.Logger
}

func NewWorker(analyzer AnalyzerService, concurrency int, log *zap.Logger) Worker {
	if concurrency < 1 {
		concurrency = 1
	}

	return &worker{
		analyzer:    analyzer,
		jobQueue:    make(chan BatchJob, 100),
		results:     make(chan BatchResult, 100),
		concurrency: concurrency,
		ctx:         context.Background(),
		log:         log.Named("worker"),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.ctx = ctx
	w.log.Info("starting batch workers", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}
}

// Stop implements Worker. Jobs already queued are still processed.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping batch workers")

		w.mu.Lock()
		w.stopped = true
		close(w.jobQueue)
		w.mu.Unlock()

		w.wg.Wait()
		close(w.results)
		w.log.Info("batch workers stopped")
	})
}

// EnqueueJob implements Worker. It reports false when the worker is stopped
// or its context is done.
func (w *worker) EnqueueJob(job BatchJob) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		w.log.Warn("worker stopped, cannot enqueue job", zap.String("path", job.Path))
		return false
	}

	select {
	case w.jobQueue <- job:
		w.log.Debug("job enqueued", zap.String("path", job.Path))
		return true
	case <-w.ctx.Done():
		w.log.Warn("worker context done, cannot enqueue job", zap.String("path", job.Path))
		return false
	}
}

func (w *worker) Results() <-chan BatchResult {
	return w.results
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker context done")
			return
		case job, ok := <-w.jobQueue:
			if !ok {
				return
			}

			result := w.process(ctx, job)
			if result.Err != nil {
				log.Warn("job failed", zap.String("path", job.Path), zap.Error(result.Err))
			} else {
				log.Debug("job completed", zap.String("path", job.Path), zap.Bool("cached", result.Result.Cached))
			}

			select {
			case w.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *worker) process(ctx context.Context, job BatchJob) BatchResult {
	metrics.BatchJobsActive.Inc()
	defer metrics.BatchJobsActive.Dec()

	data, err := os.ReadFile(job.Path)
	if err != nil {
		return BatchResult{Job: job, Err: fmt.Errorf("failed to read file: %w", err)}
	}

	result, err := w.analyzer.Analyze(ctx, AnalyzeRequest{
		Data:      data,
		FileName:  filepath.Base(job.Path),
		SubjectID: job.SubjectID,
	})
	return BatchResult{Job: job, Result: result, Err: err}
}
