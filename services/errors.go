package services

import "fmt"

// ValidationError rejects a request before the pipeline starts (bad file type
// or size). Never retried. TooLarge distinguishes oversize uploads so the
// handler can answer 413 instead of 400.
type ValidationError struct {
	Reason   string
	TooLarge bool
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ExtractionError means both extraction methods failed. Fatal for the request;
// extraction failure is structural, not transient, so it is never retried.
type ExtractionError struct {
	Reason      string
	PrimaryErr  error
	FallbackErr error
}

func (e *ExtractionError) Error() string {
	return "pdf extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error {
	return e.FallbackErr
}

// PipelineError means too many chunks permanently failed for the summary to be
// trustworthy. Fatal for the request.
type PipelineError struct {
	FailedChunks int
	TotalChunks  int
	Threshold    float64
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed: %d of %d chunks failed permanently (threshold %.0f%%)",
		e.FailedChunks, e.TotalChunks, e.Threshold*100)
}
