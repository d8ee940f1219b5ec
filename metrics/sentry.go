package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// TransformRunStats summarizes one transform application
type TransformRunStats struct {
	Kind        string // "notes", "audio" or "preview"
	Assignments int
	Targets     int // notes in, or 1 for audio
	Applied     int
	Skipped     int
	Removed     int
	Warnings    int
	Duration    time.Duration
}

// RecordTransformRun records a transform application as a span on the caller's context
func (m *SentryMetrics) RecordTransformRun(ctx context.Context, stats TransformRunStats) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "transform.apply")
	defer span.Finish()

	span.SetTag("kind", stats.Kind)
	span.SetTag("had_warnings", fmt.Sprintf("%t", stats.Warnings > 0))

	span.SetData("assignments", stats.Assignments)
	span.SetData("targets", stats.Targets)
	span.SetData("applied", stats.Applied)
	span.SetData("skipped", stats.Skipped)
	span.SetData("removed", stats.Removed)
	span.SetData("warnings", stats.Warnings)
	span.SetData("duration_us", stats.Duration.Microseconds())

	if stats.Skipped > 0 {
		span.Status = sentry.SpanStatusInvalidArgument
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Description = fmt.Sprintf("Transform %s: %d assignments over %d targets", stats.Kind, stats.Assignments, stats.Targets)
}

// RecordTokenUsage records LLM token usage metrics
func (m *SentryMetrics) RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens int) {
	if m == nil || !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("llm.model", model)
		transaction.SetData("llm.total_tokens", totalTokens)
		transaction.SetData("llm.input_tokens", inputTokens)
		transaction.SetData("llm.output_tokens", outputTokens)
	}

	span := sentry.StartSpan(ctx, "llm.token_usage")
	defer span.Finish()

	span.SetTag("model", model)
	span.SetData("total_tokens", totalTokens)
	span.SetData("input_tokens", inputTokens)
	span.SetData("output_tokens", outputTokens)

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Token Usage: %s", model)
}

// RecordGenerationDuration records generation request duration
func (m *SentryMetrics) RecordGenerationDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "generation.request")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("success", success)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Generation Request: %t", success)
}
