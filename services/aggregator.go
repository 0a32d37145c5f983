package services

import (
	"strings"
	"time"

	"pdf-research-summarizer/models"
)

// Aggregator merges per-chunk summaries into the final structured document.
// Merging is deterministic string assembly; no model call happens here.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate collects chunk summaries into sections following the fixed
// category order. Content from successive chunks is joined with blank lines,
// empty categories are omitted, and any failed chunk marks the result partial.
func (a *Aggregator) Aggregate(title string, summaries []models.ChunkSummary, elapsed time.Duration) models.FinalSummary {
	merged := make(map[models.SummaryCategory][]string)
	partial := false
	for _, s := range summaries {
		if s.Failed {
			partial = true
			continue
		}
		for _, cat := range models.CategoryOrder {
			if text := strings.TrimSpace(s.Sections[cat]); text != "" {
				merged[cat] = append(merged[cat], text)
			}
		}
	}

	var sections []models.Section
	for _, cat := range models.CategoryOrder {
		parts := merged[cat]
		if len(parts) == 0 {
			continue
		}
		sections = append(sections, models.Section{
			Title:   string(cat),
			Content: strings.Join(parts, "\n\n"),
		})
	}

	if title == "" {
		title = "Research Paper Summary"
	}
	return models.FinalSummary{
		Title:          title,
		Sections:       sections,
		ProcessingTime: elapsed.Seconds(),
		ChunkCount:     len(summaries),
		Partial:        partial,
	}
}

// DeriveTitle falls back to the first sentence of the opening abstract or
// introduction span when the extractor could not find a title line.
func (a *Aggregator) DeriveTitle(text string, spans []models.SectionSpan) string {
	for _, s := range spans {
		if s.Label != models.LabelAbstract && s.Label != models.LabelIntroduction {
			continue
		}
		body := text[s.Start:s.End]
		if s.Heading != "" {
			if i := strings.Index(body, "\n"); i >= 0 {
				body = body[i+1:]
			}
		}
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}
		if i := strings.IndexAny(body, ".\n"); i > 0 {
			body = body[:i]
		}
		if len(body) > 120 {
			body = strings.TrimSpace(body[:120])
		}
		return body
	}
	return ""
}
