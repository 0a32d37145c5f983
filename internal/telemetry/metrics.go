package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	TokensUsed          metric.Int64Counter
	PDFProcessingTime   metric.Float64Histogram
	ChunkFailures       metric.Int64Counter
	PartialSummaries    metric.Int64Counter
	CircuitBreakerState metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("pdf-research-summarizer")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"gemini.tokens.used",
		metric.WithDescription("Total Gemini tokens used"),
	)
	if err != nil {
		return nil, err
	}

	pdfProcessingTime, err := meter.Float64Histogram(
		"pdf.processing.duration",
		metric.WithDescription("End-to-end PDF summarization duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunkFailures, err := meter.Int64Counter(
		"pipeline.chunk.failures",
		metric.WithDescription("Chunk summarizations that failed permanently"),
	)
	if err != nil {
		return nil, err
	}

	partialSummaries, err := meter.Int64Counter(
		"pipeline.summaries.partial",
		metric.WithDescription("Summaries assembled despite failed chunks"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		TokensUsed:          tokensUsed,
		PDFProcessingTime:   pdfProcessingTime,
		ChunkFailures:       chunkFailures,
		PartialSummaries:    partialSummaries,
		CircuitBreakerState: circuitBreakerState,
	}, nil
}

// RecordRequest counts one HTTP request and its duration. Safe to call on a
// nil receiver so the server works with telemetry disabled.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, seconds, attrs)
}

// RecordTokens adds Gemini token usage. Safe to call on a nil receiver so the
// pipeline works with telemetry disabled.
func (m *Metrics) RecordTokens(ctx context.Context, tokens int64) {
	if m == nil {
		return
	}
	m.TokensUsed.Add(ctx, tokens)
}

// RecordChunkFailure counts a permanently failed chunk.
func (m *Metrics) RecordChunkFailure(ctx context.Context, label string) {
	if m == nil {
		return
	}
	m.ChunkFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("section", label)))
}

// RecordPartialSummary counts a run that completed below 100% chunk success.
func (m *Metrics) RecordPartialSummary(ctx context.Context) {
	if m == nil {
		return
	}
	m.PartialSummaries.Add(ctx, 1)
}

// RecordProcessingTime records end-to-end summarization duration.
func (m *Metrics) RecordProcessingTime(ctx context.Context, seconds float64) {
	if m == nil {
		return
	}
	m.PDFProcessingTime.Record(ctx, seconds)
}

// RecordBreakerChange counts a circuit breaker transition.
func (m *Metrics) RecordBreakerChange(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
