package services

import (
	"bytes"
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"pdf-research-summarizer/internal/config"
	"pdf-research-summarizer/internal/logger"
	"pdf-research-summarizer/internal/telemetry"
	"pdf-research-summarizer/models"
)

var pdfMagic = []byte("%PDF-")

// SummaryService runs the whole document pipeline: validation, text
// extraction, section detection, chunking, concurrent summarization, and
// aggregation into the structured summary.
type SummaryService struct {
	cfg          *config.Config
	extractor    *PDFExtractor
	detector     *SectionDetector
	chunker      *Chunker
	orchestrator *Orchestrator
	aggregator   *Aggregator
	metrics      *telemetry.Metrics
}

func NewSummaryService(cfg *config.Config, summarizer ChunkSummarizer, metrics *telemetry.Metrics) *SummaryService {
	return &SummaryService{
		cfg:          cfg,
		extractor:    NewPDFExtractor(),
		detector:     NewSectionDetector(),
		chunker:      NewChunker(cfg.MaxChunkSize, cfg.MinChunkSize),
		orchestrator: NewOrchestrator(summarizer, cfg.MaxConcurrency, cfg.GeminiRPM, cfg.FailureThreshold, metrics),
		aggregator:   NewAggregator(),
		metrics:      metrics,
	}
}

// ValidateDocument rejects uploads before any parsing work: size cap, content
// type allow-list, and the PDF magic prefix.
func (s *SummaryService) ValidateDocument(doc models.Document) error {
	if doc.Size == 0 {
		return &ValidationError{Reason: "file is empty"}
	}
	if doc.Size > s.cfg.MaxFileSize {
		return &ValidationError{
			Reason:   fmt.Sprintf("file exceeds maximum size of %d bytes", s.cfg.MaxFileSize),
			TooLarge: true,
		}
	}
	allowed := false
	for _, t := range s.cfg.AllowedTypes {
		if doc.ContentType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return &ValidationError{Reason: fmt.Sprintf("unsupported content type %q", doc.ContentType)}
	}
	if !bytes.HasPrefix(doc.Data, pdfMagic) {
		return &ValidationError{Reason: "file is not a valid PDF"}
	}
	return nil
}

// Summarize runs the full pipeline on a validated document.
func (s *SummaryService) Summarize(ctx context.Context, doc models.Document) (models.FinalSummary, error) {
	tracer := otel.Tracer("summary-service")
	ctx, span := tracer.Start(ctx, "summarize_document")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.filename", doc.Filename),
		attribute.Int64("document.size", doc.Size),
	)

	if err := s.ValidateDocument(doc); err != nil {
		return models.FinalSummary{}, err
	}

	extracted, err := s.extractor.ExtractText(ctx, doc)
	if err != nil {
		return models.FinalSummary{}, err
	}
	logger.Info("Text extracted",
		"filename", doc.Filename,
		"method", extracted.Method,
		"pages", extracted.PageCount,
		"chars", len(extracted.Content))

	spans := s.detector.Detect(extracted.Content)
	chunks := s.chunker.Split(extracted.Content, spans)
	if len(chunks) == 0 {
		return models.FinalSummary{}, &ExtractionError{Reason: "document contains no extractable text"}
	}
	span.SetAttributes(
		attribute.Int("pipeline.sections", len(spans)),
		attribute.Int("pipeline.chunks", len(chunks)),
	)
	s.logChunkStats(chunks)

	summaries, elapsed, err := s.orchestrator.Run(ctx, chunks)
	if err != nil {
		return models.FinalSummary{}, err
	}

	title := extracted.Title
	if title == "" {
		title = s.aggregator.DeriveTitle(extracted.Content, spans)
	}
	final := s.aggregator.Aggregate(title, summaries, elapsed)
	if final.Partial {
		s.metrics.RecordPartialSummary(ctx)
	}
	s.metrics.RecordProcessingTime(ctx, final.ProcessingTime)
	logger.Info("Summary complete",
		"filename", doc.Filename,
		"chunks", final.ChunkCount,
		"partial", final.Partial,
		"elapsed_s", final.ProcessingTime)
	return final, nil
}

func (s *SummaryService) logChunkStats(chunks []models.Chunk) {
	total := 0
	byLabel := make(map[models.SectionLabel]int)
	for _, c := range chunks {
		total += len(c.Text)
		byLabel[c.Label]++
	}
	logger.Debug("Chunking complete",
		"chunks", len(chunks),
		"total_chars", total,
		"avg_chars", total/len(chunks),
		"labels", fmt.Sprintf("%v", byLabel))
}
