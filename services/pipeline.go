package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pdf-research-summarizer/internal/logger"
	"pdf-research-summarizer/internal/telemetry"
	"pdf-research-summarizer/models"
)

// ChunkSummarizer produces a summary for one chunk. Implementations report
// per-chunk failures inside the returned ChunkSummary instead of an error so
// one bad chunk never tears down the whole run.
type ChunkSummarizer interface {
	Summarize(ctx context.Context, chunk models.Chunk) models.ChunkSummary
}

// Orchestrator fans chunks out to the summarizer under two independent caps:
// a semaphore bounding in-flight requests and a shared token bucket bounding
// request rate. Results come back in chunk order regardless of completion
// order.
type Orchestrator struct {
	summarizer       ChunkSummarizer
	maxConcurrency   int
	limiter          *rate.Limiter
	failureThreshold float64
	metrics          *telemetry.Metrics
}

func NewOrchestrator(summarizer ChunkSummarizer, maxConcurrency, requestsPerMinute int, failureThreshold float64, metrics *telemetry.Metrics) *Orchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}
	var limiter *rate.Limiter
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), maxConcurrency)
	}
	return &Orchestrator{
		summarizer:       summarizer,
		maxConcurrency:   maxConcurrency,
		limiter:          limiter,
		failureThreshold: failureThreshold,
		metrics:          metrics,
	}
}

// Run summarizes every chunk and returns the results indexed by chunk order.
// Individual chunk failures are recorded in place, and a context that expires
// mid-run only fails the chunks it interrupted: completed summaries are kept,
// so Run itself errors only when the failed fraction exceeds the configured
// threshold.
func (o *Orchestrator) Run(ctx context.Context, chunks []models.Chunk) ([]models.ChunkSummary, time.Duration, error) {
	start := time.Now()
	results := make([]models.ChunkSummary, len(chunks))
	if len(chunks) == 0 {
		return results, time.Since(start), nil
	}

	sem := make(chan struct{}, o.maxConcurrency)
	var wg sync.WaitGroup
dispatch:
	for i, chunk := range chunks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Mark the rest as failed without dispatching them and fall
			// through to the threshold check with whatever completed.
			for j := i; j < len(chunks); j++ {
				results[j] = cancelledSummary(chunks[j], ctx.Err())
			}
			break dispatch
		}

		wg.Add(1)
		go func(idx int, c models.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			if o.limiter != nil {
				if err := o.limiter.Wait(ctx); err != nil {
					results[idx] = cancelledSummary(c, err)
					return
				}
			}
			results[idx] = o.summarizer.Summarize(ctx, c)
		}(i, chunk)
	}
	wg.Wait()

	elapsed := time.Since(start)
	failed := 0
	for _, r := range results {
		if r.Failed {
			failed++
			o.metrics.RecordChunkFailure(ctx, string(r.Label))
		}
	}
	if failed > 0 {
		logger.Warn("Chunk summarization completed with failures",
			"failed", failed,
			"total", len(chunks),
			"elapsed_ms", elapsed.Milliseconds())
	}
	if fraction := float64(failed) / float64(len(chunks)); fraction > o.failureThreshold {
		return results, elapsed, &PipelineError{
			FailedChunks: failed,
			TotalChunks:  len(chunks),
			Threshold:    o.failureThreshold,
		}
	}
	return results, elapsed, nil
}

func cancelledSummary(c models.Chunk, err error) models.ChunkSummary {
	return models.ChunkSummary{
		Index:  c.Index,
		Label:  c.Label,
		Failed: true,
		Error:  err.Error(),
	}
}
