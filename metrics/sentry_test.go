package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSentryMetrics_NoClientIsSafe(t *testing.T) {
	m := NewSentryMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordTransformRun(ctx, TransformRunStats{Kind: "notes", Assignments: 2, Targets: 4, Applied: 8})
		m.RecordTokenUsage(ctx, "gpt-5.1", 30, 20, 10)
		m.RecordGenerationDuration(ctx, 10*time.Millisecond, true)
	})
}

func TestSentryMetrics_NilReceiver(t *testing.T) {
	var m *SentryMetrics
	assert.NotPanics(t, func() {
		m.RecordTransformRun(context.Background(), TransformRunStats{Kind: "audio"})
	})
}
