package services

import (
	"regexp"
	"strings"

	"pdf-research-summarizer/models"
)

var (
	sentenceEndRegex = regexp.MustCompile(`[.!?]+\s+`)
	paragraphRegex   = regexp.MustCompile(`\n\s*\n`)
)

// Chunker splits extracted text into bounded pieces for summarization. The
// produced chunks tile the input exactly: concatenating chunk texts in order
// reproduces the original string byte for byte.
type Chunker struct {
	maxChunkSize int
	minChunkSize int
}

func NewChunker(maxChunkSize, minChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 10000
	}
	if minChunkSize <= 0 || minChunkSize >= maxChunkSize {
		minChunkSize = maxChunkSize / 100
		if minChunkSize == 0 {
			minChunkSize = 1
		}
	}
	return &Chunker{maxChunkSize: maxChunkSize, minChunkSize: minChunkSize}
}

// Split cuts text into chunks no longer than maxChunkSize bytes, preferring
// break points near the end of each window: a section boundary first, then a
// sentence end, then a paragraph break, then any newline, and only then a hard
// cut at the size limit. Each chunk is labeled with the section that covers
// the majority of its bytes.
func (c *Chunker) Split(text string, spans []models.SectionSpan) []models.Chunk {
	if text == "" {
		return nil
	}

	var chunks []models.Chunk
	pos := 0
	for pos < len(text) {
		end := c.cut(text, spans, pos)
		chunk := models.Chunk{
			Index: len(chunks),
			Start: pos,
			End:   end,
			Text:  text[pos:end],
			Label: dominantLabel(spans, pos, end),
		}
		chunks = append(chunks, chunk)
		pos = end
	}
	return chunks
}

// cut picks the end offset of the chunk starting at pos. Soft break points are
// only considered inside a look-back window covering the last fifth of the
// chunk, and never below minChunkSize, so chunks stay close to full size.
func (c *Chunker) cut(text string, spans []models.SectionSpan, pos int) int {
	hardEnd := pos + c.maxChunkSize
	if hardEnd >= len(text) {
		return len(text)
	}

	windowStart := hardEnd - c.maxChunkSize/5
	if min := pos + c.minChunkSize; windowStart < min {
		windowStart = min
	}

	// A section boundary inside the window wins outright.
	bestSpan := -1
	for _, s := range spans {
		if s.End > windowStart && s.End <= hardEnd && s.End > bestSpan {
			bestSpan = s.End
		}
	}
	if bestSpan > pos {
		return bestSpan
	}

	window := text[windowStart:hardEnd]
	if locs := sentenceEndRegex.FindAllStringIndex(window, -1); len(locs) > 0 {
		return windowStart + locs[len(locs)-1][1]
	}
	if locs := paragraphRegex.FindAllStringIndex(window, -1); len(locs) > 0 {
		return windowStart + locs[len(locs)-1][0]
	}
	if i := strings.LastIndexByte(window, '\n'); i >= 0 {
		return windowStart + i + 1
	}
	return hardEnd
}

// dominantLabel returns the label of the span overlapping the most bytes of
// [start, end). Ties go to the earlier span. With no overlapping span the
// chunk is labeled Other.
func dominantLabel(spans []models.SectionSpan, start, end int) models.SectionLabel {
	best := models.LabelOther
	bestOverlap := 0
	for _, s := range spans {
		lo, hi := s.Start, s.End
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		if overlap := hi - lo; overlap > bestOverlap {
			bestOverlap = overlap
			best = s.Label
		}
	}
	return best
}
