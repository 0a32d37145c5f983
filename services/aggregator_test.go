package services

import (
	"strings"
	"testing"
	"time"

	"pdf-research-summarizer/models"
)

func TestAggregateFollowsCategoryOrder(t *testing.T) {
	a := NewAggregator()
	summaries := []models.ChunkSummary{
		{Index: 0, Sections: map[models.SummaryCategory]string{
			models.CategoryImplications: "it matters",
			models.CategoryProblem:      "hard problem",
		}},
		{Index: 1, Sections: map[models.SummaryCategory]string{
			models.CategoryMethods: "transformers",
			models.CategoryResults: "state of the art",
		}},
	}

	final := a.Aggregate("Paper", summaries, 2*time.Second)
	want := []string{"Problem", "Methods", "Results", "Implications"}
	if len(final.Sections) != len(want) {
		t.Fatalf("got %d sections, want %d", len(final.Sections), len(want))
	}
	for i, w := range want {
		if final.Sections[i].Title != w {
			t.Errorf("section %d is %q, want %q", i, final.Sections[i].Title, w)
		}
	}
	if final.ChunkCount != 2 {
		t.Errorf("ChunkCount = %d, want 2", final.ChunkCount)
	}
	if final.Partial {
		t.Error("no failed chunks, summary must not be partial")
	}
	if final.ProcessingTime != 2.0 {
		t.Errorf("ProcessingTime = %v, want 2.0", final.ProcessingTime)
	}
}

func TestAggregateJoinsChunksInOrder(t *testing.T) {
	a := NewAggregator()
	summaries := []models.ChunkSummary{
		{Index: 0, Sections: map[models.SummaryCategory]string{models.CategoryResults: "first"}},
		{Index: 1, Sections: map[models.SummaryCategory]string{models.CategoryResults: "second"}},
		{Index: 2, Sections: map[models.SummaryCategory]string{models.CategoryResults: "third"}},
	}

	final := a.Aggregate("Paper", summaries, time.Second)
	if len(final.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(final.Sections))
	}
	if got := final.Sections[0].Content; got != "first\n\nsecond\n\nthird" {
		t.Errorf("content = %q", got)
	}
}

func TestAggregateSkipsFailedChunksAndMarksPartial(t *testing.T) {
	a := NewAggregator()
	summaries := []models.ChunkSummary{
		{Index: 0, Sections: map[models.SummaryCategory]string{models.CategoryResults: "kept"}},
		{Index: 1, Failed: true, Error: "upstream error",
			Sections: map[models.SummaryCategory]string{models.CategoryResults: "must not appear"}},
	}

	final := a.Aggregate("Paper", summaries, time.Second)
	if !final.Partial {
		t.Error("a failed chunk must mark the summary partial")
	}
	if final.ChunkCount != 2 {
		t.Errorf("ChunkCount = %d, want 2 (failed chunks still count)", final.ChunkCount)
	}
	for _, s := range final.Sections {
		if strings.Contains(s.Content, "must not appear") {
			t.Error("failed chunk content leaked into the summary")
		}
	}
}

func TestAggregateDefaultTitle(t *testing.T) {
	a := NewAggregator()
	final := a.Aggregate("", nil, 0)
	if final.Title != "Research Paper Summary" {
		t.Errorf("Title = %q", final.Title)
	}
	if len(final.Sections) != 0 {
		t.Errorf("empty input should yield no sections, got %d", len(final.Sections))
	}
}

func TestDeriveTitleFromAbstract(t *testing.T) {
	text := "Abstract\nDeep networks generalize surprisingly well. We investigate why.\n"
	spans := []models.SectionSpan{
		{Label: models.LabelAbstract, Heading: "Abstract", Start: 0, End: len(text)},
	}

	a := NewAggregator()
	got := a.DeriveTitle(text, spans)
	if got != "Deep networks generalize surprisingly well" {
		t.Errorf("DeriveTitle = %q", got)
	}
}

func TestDeriveTitleNoUsableSpan(t *testing.T) {
	text := "Raw body text without structure."
	spans := []models.SectionSpan{{Label: models.LabelOther, Start: 0, End: len(text)}}

	a := NewAggregator()
	if got := a.DeriveTitle(text, spans); got != "" {
		t.Errorf("expected empty title, got %q", got)
	}
}
