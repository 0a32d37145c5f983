package services

import (
	"regexp"
	"strings"

	"pdf-research-summarizer/internal/logger"
	"pdf-research-summarizer/models"
)

// SectionRule describes one heading vocabulary entry. Rules are data, not
// control flow: new vocabularies can be added without touching the detector.
type SectionRule struct {
	Label    models.SectionLabel
	Keywords []string
	Priority int
}

// DefaultSectionRules is the built-in heading vocabulary for academic papers,
// in priority order. "Limitations" and "future work" headings fold into the
// discussion label; the limitations category emerges at summary level.
var DefaultSectionRules = []SectionRule{
	{models.LabelAbstract, []string{"abstract", "summary"}, 70},
	{models.LabelIntroduction, []string{"introduction", "background"}, 60},
	{models.LabelMethodology, []string{"materials and methods", "experimental setup", "methodology", "methods", "method", "approach"}, 50},
	{models.LabelResults, []string{"experimental results", "results", "result", "findings", "finding"}, 50},
	{models.LabelDiscussion, []string{"results and discussion", "discussion", "analysis", "limitations", "limitation", "future work"}, 40},
	{models.LabelConclusion, []string{"concluding remarks", "conclusions", "conclusion"}, 40},
}

// SectionDetector scans extracted text for academic section headings and tags
// spans accordingly. Detection always succeeds: when no heading matches, the
// whole text becomes a single span labeled Other.
type SectionDetector struct {
	rules         []SectionRule
	maxHeadingLen int
	numberPrefix  *regexp.Regexp
}

// NewSectionDetector builds a detector over the given rule table, or
// DefaultSectionRules when none is provided.
func NewSectionDetector(rules ...SectionRule) *SectionDetector {
	if len(rules) == 0 {
		rules = DefaultSectionRules
	}
	return &SectionDetector{
		rules:         rules,
		maxHeadingLen: 80,
		numberPrefix:  regexp.MustCompile(`^(\d+(\.\d+)*\.?|[IVXLivxl]+\.)\s*`),
	}
}

// Detect returns an ordered sequence of spans that partition text with no gaps
// or overlaps.
func (d *SectionDetector) Detect(text string) []models.SectionSpan {
	if text == "" {
		return []models.SectionSpan{{Label: models.LabelOther}}
	}

	var spans []models.SectionSpan
	open := func(start int, label models.SectionLabel, heading string, priority int) {
		if len(spans) > 0 {
			spans[len(spans)-1].End = start
		}
		spans = append(spans, models.SectionSpan{
			Label:    label,
			Heading:  heading,
			Start:    start,
			Priority: priority,
		})
	}

	offset := 0
	prevBlank := true // start of document counts as after a blank line
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed != "" {
			if label, priority, ok := d.matchHeading(trimmed, prevBlank); ok {
				// Leading unmatched content becomes an Other span so the
				// spans always cover the document from position zero.
				if len(spans) == 0 && offset > 0 {
					spans = append(spans, models.SectionSpan{Label: models.LabelOther, Start: 0})
				}
				open(offset, label, trimmed, priority)
			}
		}

		prevBlank = trimmed == ""
		offset += len(line)
	}

	if len(spans) == 0 {
		logger.Debug("No section headings matched, treating as continuous text")
		return []models.SectionSpan{{Label: models.LabelOther, Start: 0, End: len(text)}}
	}

	spans[len(spans)-1].End = len(text)
	return spans
}

// matchHeading decides whether a trimmed line opens a new section. A candidate
// must be short, follow a blank line or carry an enumeration prefix, and begin
// with a known keyword. When several keywords match at the same position the
// longest wins, then rule priority.
func (d *SectionDetector) matchHeading(trimmed string, prevBlank bool) (models.SectionLabel, int, bool) {
	if len(trimmed) > d.maxHeadingLen {
		return "", 0, false
	}

	stripped := d.numberPrefix.ReplaceAllString(trimmed, "")
	hasNumberPrefix := len(stripped) < len(trimmed)
	if !prevBlank && !hasNumberPrefix {
		return "", 0, false
	}

	lower := strings.ToLower(strings.TrimRight(stripped, ":. "))

	var (
		bestLabel    models.SectionLabel
		bestKeyword  string
		bestPriority int
		found        bool
	)
	for _, rule := range d.rules {
		for _, kw := range rule.Keywords {
			if !strings.HasPrefix(lower, kw) {
				continue
			}
			if len(lower) > len(kw) {
				next := lower[len(kw)]
				if next != ' ' && next != ':' {
					continue
				}
			}
			better := len(kw) > len(bestKeyword) ||
				(len(kw) == len(bestKeyword) && rule.Priority > bestPriority)
			if !found || better {
				bestLabel, bestKeyword, bestPriority, found = rule.Label, kw, rule.Priority, true
			}
		}
	}

	if !found {
		return "", 0, false
	}
	return bestLabel, bestPriority, true
}
