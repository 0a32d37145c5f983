package models

import "time"

// SectionLabel identifies the academic section a span of text belongs to.
type SectionLabel string

const (
	LabelAbstract     SectionLabel = "abstract"
	LabelIntroduction SectionLabel = "introduction"
	LabelMethodology  SectionLabel = "methodology"
	LabelResults      SectionLabel = "results"
	LabelDiscussion   SectionLabel = "discussion"
	LabelConclusion   SectionLabel = "conclusion"
	LabelOther        SectionLabel = "other"
)

// SummaryCategory is an output category of the final structured summary.
type SummaryCategory string

const (
	CategoryProblem      SummaryCategory = "Problem"
	CategoryMethods      SummaryCategory = "Methods"
	CategoryResults      SummaryCategory = "Results"
	CategoryImplications SummaryCategory = "Implications"
	CategoryLimitations  SummaryCategory = "Limitations"
)

// CategoryOrder is the fixed order in which categories appear in a FinalSummary.
var CategoryOrder = []SummaryCategory{
	CategoryProblem,
	CategoryMethods,
	CategoryResults,
	CategoryImplications,
	CategoryLimitations,
}

// Document is an uploaded PDF held in memory for the duration of one request.
type Document struct {
	Data        []byte
	ContentType string
	Size        int64
	Filename    string
}

// ExtractedText is the plain-text content pulled out of a Document.
type ExtractedText struct {
	Content   string `json:"content"`
	Method    string `json:"method"`
	PageCount int    `json:"page_count"`
	Title     string `json:"title,omitempty"`
}

// SectionSpan is a contiguous, non-overlapping range of extracted text tagged
// with an academic section label. Spans partition the full text.
type SectionSpan struct {
	Label    SectionLabel `json:"label"`
	Heading  string       `json:"heading,omitempty"`
	Start    int          `json:"start"`
	End      int          `json:"end"`
	Priority int          `json:"priority"`
}

// Chunk is one bounded unit of document text submitted as a single
// summarization request. Concatenating chunk texts in index order
// reproduces the extracted text exactly.
type Chunk struct {
	Index int          `json:"index"`
	Start int          `json:"start"`
	End   int          `json:"end"`
	Text  string       `json:"text"`
	Label SectionLabel `json:"label"`
}

// ChunkSummary is the result of summarizing one chunk. A permanently failed
// chunk carries Failed=true and an empty Sections map; it never aborts the
// pipeline by itself.
type ChunkSummary struct {
	Index    int                        `json:"index"`
	Label    SectionLabel               `json:"label"`
	Sections map[SummaryCategory]string `json:"sections,omitempty"`
	Failed   bool                       `json:"failed,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Elapsed  time.Duration              `json:"-"`
}

// Section is one named section of the final summary document.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FinalSummary is the sole externally observable artifact of a successful run.
// It is immutable after construction.
type FinalSummary struct {
	Title          string    `json:"title"`
	Sections       []Section `json:"sections"`
	ProcessingTime float64   `json:"processing_time"`
	ChunkCount     int       `json:"chunk_count"`
	Partial        bool      `json:"-"`
}

// TargetCategory maps a section label to the summary category its content
// contributes to when the model response carries no recognizable headers.
func (l SectionLabel) TargetCategory() SummaryCategory {
	switch l {
	case LabelAbstract, LabelIntroduction:
		return CategoryProblem
	case LabelMethodology:
		return CategoryMethods
	case LabelResults:
		return CategoryResults
	case LabelDiscussion, LabelConclusion:
		return CategoryImplications
	default:
		return CategoryResults
	}
}
