package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
)

// UpstreamError wraps a failed Gemini call with an explicit transient/permanent
// classification so callers never have to inspect raw error types.
type UpstreamError struct {
	Code        int
	Transient   bool
	RateLimited bool
	Err         error
}

func (e *UpstreamError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("upstream %s failure (code %d): %v", kind, e.Code, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Classify tags an error from the Gemini API as transient (worth retrying) or
// permanent. Rate limits, timeouts and 5xx responses are transient; malformed
// requests, auth failures and safety blocks are permanent.
func Classify(err error) *UpstreamError {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Transient: true, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &UpstreamError{Transient: false, Err: err}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &UpstreamError{Transient: true, Err: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests:
			return &UpstreamError{Code: gerr.Code, Transient: true, RateLimited: true, Err: err}
		case gerr.Code >= 500:
			return &UpstreamError{Code: gerr.Code, Transient: true, Err: err}
		default:
			return &UpstreamError{Code: gerr.Code, Transient: false, Err: err}
		}
	}

	// The genai SDK surfaces some gRPC failures as plain errors; fall back to
	// message sniffing the way the quota/rate cases actually come through.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource exhausted"):
		return &UpstreamError{Code: http.StatusTooManyRequests, Transient: true, RateLimited: true, Err: err}
	case strings.Contains(msg, "unavailable") || strings.Contains(msg, "deadline") || strings.Contains(msg, "timeout"):
		return &UpstreamError{Transient: true, Err: err}
	case strings.Contains(msg, "api key") || strings.Contains(msg, "authentication") || strings.Contains(msg, "permission"):
		return &UpstreamError{Code: http.StatusUnauthorized, Transient: false, Err: err}
	case strings.Contains(msg, "safety") || strings.Contains(msg, "blocked"):
		return &UpstreamError{Transient: false, Err: err}
	default:
		return &UpstreamError{Transient: false, Err: err}
	}
}
