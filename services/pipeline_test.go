package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"pdf-research-summarizer/models"
)

// mockSummarizer lets tests script per-chunk outcomes and observe concurrency.
type mockSummarizer struct {
	failIndexes map[int]bool
	delay       func(idx int) time.Duration

	inFlight    int32
	maxInFlight int32
	calls       int32
}

func (m *mockSummarizer) Summarize(ctx context.Context, chunk models.Chunk) models.ChunkSummary {
	atomic.AddInt32(&m.calls, 1)
	cur := atomic.AddInt32(&m.inFlight, 1)
	for {
		prev := atomic.LoadInt32(&m.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&m.maxInFlight, prev, cur) {
			break
		}
	}
	defer atomic.AddInt32(&m.inFlight, -1)

	if m.delay != nil {
		time.Sleep(m.delay(chunk.Index))
	}
	if m.failIndexes[chunk.Index] {
		return models.ChunkSummary{Index: chunk.Index, Label: chunk.Label, Failed: true, Error: "upstream error"}
	}
	return models.ChunkSummary{
		Index: chunk.Index,
		Label: chunk.Label,
		Sections: map[models.SummaryCategory]string{
			models.CategoryResults: fmt.Sprintf("summary of chunk %d", chunk.Index),
		},
	}
}

func makeChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{Index: i, Label: models.LabelOther, Text: fmt.Sprintf("chunk %d", i)}
	}
	return chunks
}

func TestRunPreservesChunkOrder(t *testing.T) {
	mock := &mockSummarizer{
		delay: func(int) time.Duration {
			return time.Duration(rand.Intn(20)) * time.Millisecond
		},
	}
	o := NewOrchestrator(mock, 4, 0, 0.5, nil)

	results, _, err := o.Run(context.Background(), makeChunks(12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		want := fmt.Sprintf("summary of chunk %d", i)
		if r.Sections[models.CategoryResults] != want {
			t.Errorf("result %d holds %q, want %q", i, r.Sections[models.CategoryResults], want)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	mock := &mockSummarizer{
		delay: func(int) time.Duration { return 10 * time.Millisecond },
	}
	o := NewOrchestrator(mock, 3, 0, 0.5, nil)

	if _, _, err := o.Run(context.Background(), makeChunks(20)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if max := atomic.LoadInt32(&mock.maxInFlight); max > 3 {
		t.Errorf("observed %d concurrent calls, limit is 3", max)
	}
	if calls := atomic.LoadInt32(&mock.calls); calls != 20 {
		t.Errorf("summarizer called %d times, want 20", calls)
	}
}

func TestRunToleratesFailuresBelowThreshold(t *testing.T) {
	mock := &mockSummarizer{failIndexes: map[int]bool{2: true, 7: true}}
	o := NewOrchestrator(mock, 3, 0, 0.5, nil)

	results, _, err := o.Run(context.Background(), makeChunks(10))
	if err != nil {
		t.Fatalf("2 of 10 failures must not abort the run: %v", err)
	}
	for i, r := range results {
		wantFailed := i == 2 || i == 7
		if r.Failed != wantFailed {
			t.Errorf("result %d failed=%v, want %v", i, r.Failed, wantFailed)
		}
	}
}

func TestRunFailsAboveThreshold(t *testing.T) {
	mock := &mockSummarizer{failIndexes: map[int]bool{0: true, 1: true, 2: true}}
	o := NewOrchestrator(mock, 3, 0, 0.5, nil)

	results, _, err := o.Run(context.Background(), makeChunks(4))
	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pErr.FailedChunks != 3 || pErr.TotalChunks != 4 {
		t.Errorf("error reports %d/%d, want 3/4", pErr.FailedChunks, pErr.TotalChunks)
	}
	if len(results) != 4 {
		t.Errorf("results must still cover all chunks, got %d", len(results))
	}
}

func TestRunExactThresholdPasses(t *testing.T) {
	// Exactly half failed is not "more than" the 0.5 threshold.
	mock := &mockSummarizer{failIndexes: map[int]bool{0: true, 1: true}}
	o := NewOrchestrator(mock, 2, 0, 0.5, nil)

	if _, _, err := o.Run(context.Background(), makeChunks(4)); err != nil {
		t.Fatalf("50%% failures at threshold 0.5 must pass: %v", err)
	}
}

func TestRunCancelledEarlyBreachesThreshold(t *testing.T) {
	mock := &mockSummarizer{
		delay: func(int) time.Duration { return 50 * time.Millisecond },
	}
	o := NewOrchestrator(mock, 1, 0, 0.5, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results, _, err := o.Run(ctx, makeChunks(10))
	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		t.Fatalf("cancelling most of the run must breach the threshold, got %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("results must cover all chunks even when cancelled, got %d", len(results))
	}
	failed := 0
	for _, r := range results {
		if r.Failed {
			failed++
		}
	}
	if failed == 0 {
		t.Error("cancellation should mark undispatched chunks as failed")
	}
	if failed != pErr.FailedChunks {
		t.Errorf("error reports %d failed chunks, results carry %d", pErr.FailedChunks, failed)
	}
}

// cancellingSummarizer cancels the run while handling one chunk, the way a
// request deadline fires mid-dispatch.
type cancellingSummarizer struct {
	cancel   context.CancelFunc
	cancelAt int
}

func (s *cancellingSummarizer) Summarize(ctx context.Context, chunk models.Chunk) models.ChunkSummary {
	if chunk.Index == s.cancelAt {
		s.cancel()
		// Hold the semaphore slot so the dispatcher observes cancellation
		// before this slot frees up.
		time.Sleep(20 * time.Millisecond)
	}
	return models.ChunkSummary{
		Index: chunk.Index,
		Label: chunk.Label,
		Sections: map[models.SummaryCategory]string{
			models.CategoryResults: fmt.Sprintf("summary of chunk %d", chunk.Index),
		},
	}
}

func TestRunKeepsCompletedWorkOnExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := NewOrchestrator(&cancellingSummarizer{cancel: cancel, cancelAt: 3}, 1, 0, 0.5, nil)

	results, elapsed, err := o.Run(ctx, makeChunks(5))
	if err != nil {
		t.Fatalf("1 of 5 chunks lost to expiry must not fail the run: %v", err)
	}
	for i := 0; i <= 3; i++ {
		if results[i].Failed {
			t.Errorf("chunk %d completed before expiry, must not be failed", i)
		}
		want := fmt.Sprintf("summary of chunk %d", i)
		if results[i].Sections[models.CategoryResults] != want {
			t.Errorf("result %d holds %q, want %q", i, results[i].Sections[models.CategoryResults], want)
		}
	}
	if !results[4].Failed {
		t.Error("undispatched chunk must be marked failed")
	}

	final := NewAggregator().Aggregate("Paper", results, elapsed)
	if !final.Partial {
		t.Error("summary assembled after expiry must be partial")
	}
	if len(final.Sections) == 0 {
		t.Error("completed chunks must still produce sections")
	}
}

func TestRunEmptyChunks(t *testing.T) {
	o := NewOrchestrator(&mockSummarizer{}, 3, 0, 0.5, nil)
	results, _, err := o.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
