package transform

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/magda-transforms-go/metrics"
	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/transform/waveform"
)

// Engine applies parsed programs to notes or audio properties.
// It holds no per-run state, so one Engine can serve many calls.
type Engine struct {
	random  waveform.Source
	metrics *metrics.SentryMetrics
}

// Option configures an Engine
type Option func(*Engine)

// WithRandomSource fixes the source behind rand(), choose() and noise()
func WithRandomSource(src waveform.Source) Option {
	return func(e *Engine) {
		e.random = src
	}
}

// WithMetrics records each run as a Sentry span
func WithMetrics(m *metrics.SentryMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an engine with a time-seeded random source unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.random == nil {
		e.random = waveform.NewSource()
	}
	return e
}

var defaultEngine = NewEngine()

// Report describes what a run did. Warnings are also written to the log.
type Report struct {
	Assignments int
	Applied     int
	Skipped     int
	Removed     int
	Warnings    []string
}

func (r *Report) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Printf("⚠️  Transform: %s", msg)
}

func (e *Engine) record(ctx context.Context, kind string, targets int, started time.Time, report *Report) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordTransformRun(ctx, metrics.TransformRunStats{
		Kind:        kind,
		Assignments: report.Assignments,
		Targets:     targets,
		Applied:     report.Applied,
		Skipped:     report.Skipped,
		Removed:     report.Removed,
		Warnings:    len(report.Warnings),
		Duration:    time.Since(started),
	})
}

// normalizeTimeSignature falls back to 4/4 for unusable meters
func normalizeTimeSignature(ts models.TimeSignature, report *Report) models.TimeSignature {
	if ts.Valid() {
		return ts
	}
	report.warn("invalid time signature %d/%d, using 4/4", ts.Numerator, ts.Denominator)
	return models.CommonTime
}

// parseForApply parses text for the top-level entry points. A syntax error is logged
// once and the program is treated as empty.
func parseForApply(text string) *Program {
	program, err := Parse(text)
	if err != nil {
		log.Printf("⚠️  Transform: %v (no transform applied)", err)
		return &Program{Source: text}
	}
	return program
}

// ApplyTransforms parses text and applies it to notes with the default engine
func ApplyTransforms(notes []models.NoteEvent, text string, ts models.TimeSignature, clip *models.ClipContext) []models.NoteEvent {
	result, _ := defaultEngine.ApplyNotes(context.Background(), notes, parseForApply(text), ts, clip)
	return result
}

// ApplyAudioTransform parses text and applies it to a clip's gain and pitch shift
func ApplyAudioTransform(gain, pitchShift float64, text string, clip *models.ClipContext) models.AudioResult {
	props := models.AudioProperties{Gain: gain, PitchShift: pitchShift}
	result, _ := defaultEngine.ApplyAudio(context.Background(), props, parseForApply(text), clip)
	return result
}

// EvaluateTransform previews text against a single context without mutating anything
func EvaluateTransform(text string, evalCtx *EvalContext) map[Parameter]Preview {
	result, _ := defaultEngine.Evaluate(context.Background(), parseForApply(text), evalCtx)
	return result
}
