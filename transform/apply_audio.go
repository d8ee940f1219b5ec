package transform

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
)

const (
	minGainDB        = -70.0
	maxGainDB        = 24.0
	maxPitchShiftAbs = 48.0
)

// ApplyAudio runs the gain and pitchShift assignments of program against one audio clip.
// Running values are visible to later assignments through audio.gain and audio.pitchShift.
// A property no assignment touched comes back nil.
func (e *Engine) ApplyAudio(
	ctx context.Context,
	props models.AudioProperties,
	program *Program,
	clip *models.ClipContext,
) (models.AudioResult, *Report) {
	started := time.Now()
	report := &Report{}
	var result models.AudioResult
	if program == nil || len(program.Assignments) == 0 {
		return result, report
	}
	report.Assignments = len(program.Assignments)

	running := props
	gainSet, pitchShiftSet := false, false
	midiOnly := 0

	ts, timeRange := audioTiming(clip)

	for _, assignment := range program.Assignments {
		if !assignment.Parameter.IsAudio() {
			midiOnly++
			continue
		}

		evalCtx := &EvalContext{
			Position:      0,
			TimeSignature: ts,
			TimeRange:     timeRange,
			Audio:         &AudioVars{Gain: running.Gain, PitchShift: running.PitchShift},
			Clip:          clip,
			Random:        e.random,
		}

		value, err := Evaluate(assignment.Expression, evalCtx)
		if err != nil {
			report.Skipped++
			report.warn("%s (line %d) skipped: %v", assignment.Parameter, assignment.Line, err)
			continue
		}

		switch assignment.Parameter {
		case ParamGain:
			running.Gain = combine(assignment.Operator, running.Gain, value)
			gainSet = true
		case ParamPitchShift:
			running.PitchShift = combine(assignment.Operator, running.PitchShift, value)
			pitchShiftSet = true
		}
		report.Applied++
	}

	if midiOnly > 0 {
		report.warn("ignored %d MIDI-only assignment(s) on an audio clip", midiOnly)
	}

	if gainSet {
		gain := clamp(minGainDB, maxGainDB, running.Gain)
		result.Gain = &gain
	}
	if pitchShiftSet {
		shift := clamp(-maxPitchShiftAbs, maxPitchShiftAbs, running.PitchShift)
		result.PitchShift = &shift
	}

	e.record(ctx, "audio", 1, started, report)
	return result, report
}

// audioTiming derives the meter and range an audio clip evaluates against.
// Audio clips carry no meter of their own, so the bar length stands in for the numerator.
func audioTiming(clip *models.ClipContext) (models.TimeSignature, TimeRange) {
	ts := models.CommonTime
	if clip == nil {
		return ts, TimeRange{}
	}
	if clip.BarDuration > 0 && clip.BarDuration == float64(int(clip.BarDuration)) {
		ts.Numerator = int(clip.BarDuration)
	}
	return ts, TimeRange{Start: 0, End: clip.ClipDuration}
}
