package ai

import (
	"fmt"
	"strings"

	"pdf-research-summarizer/models"
)

// buildChunkPrompt asks the model for a structured summary of one chunk,
// hinting at the academic section the chunk was taken from.
func buildChunkPrompt(chunk models.Chunk) string {
	return fmt.Sprintf(`You are an expert academic researcher. This excerpt comes from the %s section of a research paper. Summarize it under the headers below, writing 1-3 sentences per header and omitting any header the excerpt says nothing about.

**Problem**
**Methods**
**Results**
**Implications**
**Limitations**

Use clear, academic language and keep the most important details: key techniques, data sources, specific findings and metrics.

Text to summarize:
%s

Structured summary:`, chunk.Label, chunk.Text)
}

// categoryHeaders maps header keywords the model may emit to output categories.
// Checked in order; longer keyword lists first so "research question" beats
// "research".
var categoryHeaders = []struct {
	category models.SummaryCategory
	keywords []string
}{
	{models.CategoryLimitations, []string{"limitations", "constraints", "future work", "future research"}},
	{models.CategoryImplications, []string{"implications", "significance", "applications", "impact"}},
	{models.CategoryResults, []string{"results", "findings", "outcomes", "discoveries"}},
	{models.CategoryMethods, []string{"methods", "methodology", "approach", "techniques"}},
	{models.CategoryProblem, []string{"problem", "research question", "background"}},
}

// ParseStructuredSummary splits a model response into per-category content by
// recognizing **Header**, "# Header" and "Header:" lines. Content with no
// recognizable header lands in the fallback category so nothing is lost.
func ParseStructuredSummary(text string, fallback models.SummaryCategory) map[models.SummaryCategory]string {
	sections := make(map[models.SummaryCategory]string)
	var current models.SummaryCategory
	var buf []string

	flush := func() {
		if current == "" || len(buf) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(buf, " "))
		if content == "" {
			return
		}
		if existing, ok := sections[current]; ok {
			sections[current] = existing + " " + content
		} else {
			sections[current] = content
		}
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if cat, ok := headerCategory(line); ok {
			flush()
			current = cat
			continue
		}

		if current != "" {
			clean := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(line, "**", ""), "#", ""))
			if clean != "" {
				buf = append(buf, clean)
			}
		}
	}
	flush()

	if len(sections) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			sections[fallback] = trimmed
		}
	}

	return sections
}

// headerCategory reports whether a line is a section header and which category
// it names. Only decorated lines count: **bold**, markdown headings, or a
// trailing colon. The keyword must open the line once decoration is stripped,
// so prose that merely mentions a keyword before a colon does not start a
// section.
func headerCategory(line string) (models.SummaryCategory, bool) {
	decorated := strings.HasPrefix(line, "**") || strings.HasPrefix(line, "#") || strings.HasSuffix(line, ":")
	if !decorated {
		return "", false
	}

	lower := strings.ToLower(strings.TrimLeft(line, "*# "))
	for _, h := range categoryHeaders {
		for _, kw := range h.keywords {
			if !strings.HasPrefix(lower, kw) {
				continue
			}
			rest := lower[len(kw):]
			if rest == "" || !('a' <= rest[0] && rest[0] <= 'z') {
				return h.category, true
			}
		}
	}
	return "", false
}
