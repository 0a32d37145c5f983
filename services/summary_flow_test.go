package services

import (
	"context"
	"strings"
	"testing"

	"pdf-research-summarizer/models"
)

// sectionAwareSummarizer fills the category matching each chunk's label, the
// way the structured model responses are parsed in production.
type sectionAwareSummarizer struct{}

func (sectionAwareSummarizer) Summarize(ctx context.Context, chunk models.Chunk) models.ChunkSummary {
	return models.ChunkSummary{
		Index: chunk.Index,
		Label: chunk.Label,
		Sections: map[models.SummaryCategory]string{
			models.CategoryProblem: "problem statement from chunk",
			models.CategoryMethods: "methods from chunk",
			models.CategoryResults: "results from chunk",
		},
	}
}

func buildPaper(t *testing.T) string {
	t.Helper()
	sentence := "This sentence pads the section body with plausible prose. "
	var b strings.Builder
	b.WriteString("A Compact Study\n\n")
	for _, h := range []string{"Abstract", "Introduction", "Methods", "Results", "Conclusion"} {
		b.WriteString(h + "\n\n")
		b.WriteString(strings.Repeat(sentence, 12))
		b.WriteString("\n\n")
	}
	text := b.String()
	if len(text) > 4500 {
		t.Fatalf("test document unexpectedly large: %d", len(text))
	}
	return text
}

func TestShortPaperYieldsFiveSectionsOneChunk(t *testing.T) {
	text := buildPaper(t)

	detector := NewSectionDetector()
	spans := detector.Detect(text)

	labeled := 0
	for _, s := range spans {
		if s.Label != models.LabelOther {
			labeled++
		}
	}
	if labeled != 5 {
		t.Fatalf("got %d labeled spans, want 5: %+v", labeled, spans)
	}

	chunker := NewChunker(10000, 100)
	chunks := chunker.Split(text, spans)
	if len(chunks) != 1 {
		t.Fatalf("a 4k-char paper should fit in one chunk, got %d", len(chunks))
	}

	o := NewOrchestrator(sectionAwareSummarizer{}, 3, 0, 0.5, nil)
	summaries, elapsed, err := o.Run(context.Background(), chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final := NewAggregator().Aggregate("A Compact Study", summaries, elapsed)
	if final.ChunkCount != 1 {
		t.Errorf("ChunkCount = %d, want 1", final.ChunkCount)
	}
	if final.Partial {
		t.Error("fully successful run must not be partial")
	}

	got := make(map[string]string)
	for _, s := range final.Sections {
		got[s.Title] = s.Content
	}
	for _, want := range []string{"Problem", "Methods", "Results"} {
		if got[want] == "" {
			t.Errorf("section %q missing or empty: %v", want, final.Sections)
		}
	}
}

func TestPartialSummarySurvivesFailedChunks(t *testing.T) {
	text := buildPaper(t)
	detector := NewSectionDetector()
	spans := detector.Detect(text)

	// Force several small chunks so some can fail below the threshold.
	chunker := NewChunker(1000, 100)
	chunks := chunker.Split(text, spans)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}

	mock := &mockSummarizer{failIndexes: map[int]bool{1: true}}
	o := NewOrchestrator(mock, 3, 0, 0.5, nil)
	summaries, elapsed, err := o.Run(context.Background(), chunks)
	if err != nil {
		t.Fatalf("one failure among %d chunks must not abort: %v", len(chunks), err)
	}

	final := NewAggregator().Aggregate("A Compact Study", summaries, elapsed)
	if !final.Partial {
		t.Error("summary with a failed chunk must be partial")
	}
	if len(final.Sections) == 0 {
		t.Error("surviving chunks must still produce sections")
	}
}
