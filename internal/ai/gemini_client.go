package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"pdf-research-summarizer/internal/config"
	"pdf-research-summarizer/internal/logger"
	"pdf-research-summarizer/internal/telemetry"
	"pdf-research-summarizer/models"
)

// GeminiClient summarizes single chunks against the Gemini API. It owns the
// circuit breaker and the retry policy; rate limiting and concurrency caps are
// layered above it by the pipeline orchestrator, which shares one instance
// across all concurrent chunk calls.
type GeminiClient struct {
	client       *genai.Client
	modelName    string
	breaker      *gobreaker.CircuitBreaker
	retry        RetryPolicy
	chunkTimeout time.Duration
	metrics      *telemetry.Metrics
}

func NewGeminiClient(cfg *config.Config, metrics *telemetry.Metrics) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordBreakerChange(context.Background(), from.String(), to.String())
		},
	})

	return &GeminiClient{
		client:    client,
		modelName: cfg.GeminiModel,
		breaker:   breaker,
		retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			Multiplier: 2,
			MaxDelay:   cfg.RetryMaxDelay,
			Jitter:     0.5,
		},
		chunkTimeout: cfg.ChunkTimeout,
		metrics:      metrics,
	}, nil
}

// Summarize produces a ChunkSummary for one chunk. It never returns an error:
// after retries are exhausted, or on a permanent upstream failure, the result
// is tagged Failed so a single bad chunk cannot abort the whole pipeline.
func (gc *GeminiClient) Summarize(ctx context.Context, chunk models.Chunk) models.ChunkSummary {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.summarize_chunk")
	defer span.End()

	span.SetAttributes(
		attribute.Int("chunk.index", chunk.Index),
		attribute.String("chunk.section", string(chunk.Label)),
		attribute.Int("chunk.chars", len(chunk.Text)),
		attribute.String("gemini.model", gc.modelName),
	)

	if gc.chunkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gc.chunkTimeout)
		defer cancel()
	}

	start := time.Now()
	prompt := buildChunkPrompt(chunk)

	text, uerr := gc.retry.Do(ctx, func(ctx context.Context) (string, error) {
		return gc.generate(ctx, prompt)
	})

	elapsed := time.Since(start)

	if uerr != nil {
		span.SetAttributes(
			attribute.Bool("gemini.failed", true),
			attribute.Bool("gemini.transient", uerr.Transient),
		)
		logger.Error("Chunk summarization failed",
			"chunk", chunk.Index, "section", chunk.Label, "transient", uerr.Transient, "error", uerr.Error())
		return models.ChunkSummary{
			Index:   chunk.Index,
			Label:   chunk.Label,
			Failed:  true,
			Error:   uerr.Error(),
			Elapsed: elapsed,
		}
	}

	return models.ChunkSummary{
		Index:    chunk.Index,
		Label:    chunk.Label,
		Sections: ParseStructuredSummary(text, chunk.Label.TargetCategory()),
		Elapsed:  elapsed,
	}
}

// generate performs one raw Gemini call behind the circuit breaker and
// validates the response.
func (gc *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.modelName)
		model.SetTemperature(0.3)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return "", err
	}

	resp := result.(*genai.GenerateContentResponse)
	if resp.UsageMetadata != nil {
		gc.metrics.RecordTokens(ctx, int64(resp.UsageMetadata.TotalTokenCount))
	}

	text := extractTextFromResponse(resp)
	if strings.TrimSpace(text) == "" {
		// No candidates usually means a safety block; retrying will not help.
		return "", &UpstreamError{Transient: false, Err: fmt.Errorf("empty response from model")}
	}

	return text, nil
}

// BreakerState reports the current circuit breaker state for health checks.
func (gc *GeminiClient) BreakerState() gobreaker.State {
	return gc.breaker.State()
}

// Close the underlying client.
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}

// extractTextFromResponse concatenates all text parts of a Gemini response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) string {
	var result strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					result.WriteString(string(text))
				}
			}
		}
	}
	return result.String()
}
