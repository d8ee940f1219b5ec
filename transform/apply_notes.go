package transform

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/music"
)

// ApplyNotes runs program over notes in assignment-major order.
//
// Notes are sorted by start time then pitch, mutated in place, and every assignment sees
// the effects of the ones before it. Notes left with velocity < 1 or duration <= 0 are
// dropped from the returned slice. An evaluation failure skips only that (assignment, note) pair.
func (e *Engine) ApplyNotes(
	ctx context.Context,
	notes []models.NoteEvent,
	program *Program,
	ts models.TimeSignature,
	clip *models.ClipContext,
) ([]models.NoteEvent, *Report) {
	started := time.Now()
	report := &Report{}
	if program == nil || len(program.Assignments) == 0 || len(notes) == 0 {
		return notes, report
	}
	report.Assignments = len(program.Assignments)
	ts = normalizeTimeSignature(ts, report)

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].StartTime != notes[j].StartTime {
			return notes[i].StartTime < notes[j].StartTime
		}
		return notes[i].Pitch < notes[j].Pitch
	})

	clipRange := notesTimeRange(notes, ts)
	pitchRanges := ResolvePitchRanges(program.Assignments)
	audioOnly := 0

	for i, assignment := range program.Assignments {
		if !assignment.Parameter.IsMIDI() {
			audioOnly++
			continue
		}

		timeRange := resolveTimeRange(assignment, ts.Numerator, clipRange)
		matched := filterByPitch(notes, pitchRanges[i])

		for index, noteIndex := range matched {
			note := &notes[noteIndex]
			position := ts.BeatsToMusical(note.StartTime)
			barBeat := music.MusicalBeatsToBarBeat(position, ts.Numerator)
			if !inTimeRange(assignment, &barBeat) {
				continue
			}

			evalCtx := &EvalContext{
				Position:      position,
				TimeSignature: ts,
				TimeRange:     timeRange,
				BarBeat:       &barBeat,
				Note:          noteVars(note, ts, index, len(matched)),
				Clip:          clip,
				Random:        e.random,
			}

			value, err := Evaluate(assignment.Expression, evalCtx)
			if err != nil {
				report.Skipped++
				report.warn("%s (line %d) skipped for note at %s: %v", assignment.Parameter, assignment.Line, barBeat, err)
				continue
			}

			if err := applyNoteValue(note, assignment, value, ts); err != nil {
				report.Skipped++
				report.warn("%s (line %d) skipped for note at %s: %v", assignment.Parameter, assignment.Line, barBeat, err)
				continue
			}
			report.Applied++
		}
	}

	if audioOnly > 0 {
		report.warn("ignored %d audio-only assignment(s) (gain, pitchShift) on a MIDI clip", audioOnly)
	}

	kept := make([]models.NoteEvent, 0, len(notes))
	for _, note := range notes {
		if note.Velocity < 1 || note.Duration <= 0 {
			report.Removed++
			continue
		}
		kept = append(kept, note)
	}

	e.record(ctx, "notes", len(notes), started, report)
	return kept, report
}

// filterByPitch returns the indices of notes inside the range, all notes when r is nil
func filterByPitch(notes []models.NoteEvent, r *PitchRange) []int {
	matched := make([]int, 0, len(notes))
	for i := range notes {
		if r == nil || r.Contains(notes[i].Pitch) {
			matched = append(matched, i)
		}
	}
	return matched
}

func noteVars(note *models.NoteEvent, ts models.TimeSignature, index, count int) *NoteVars {
	return &NoteVars{
		Pitch:       float64(note.Pitch),
		Start:       ts.BeatsToMusical(note.StartTime),
		Velocity:    note.Velocity,
		Deviation:   note.DeviationOrDefault(),
		Duration:    ts.BeatsToMusical(note.Duration),
		Probability: note.ProbabilityOrDefault(),
		Index:       index,
		Count:       count,
	}
}

func combine(op Operator, current, value float64) float64 {
	if op == OperatorAdd {
		return current + value
	}
	return value
}

func clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// applyNoteValue writes value into the assignment's field. Timing and duration arrive
// in musical beats and are stored in quarter-note beats. The unclamped fields refuse
// a sum that overflows.
func applyNoteValue(note *models.NoteEvent, a Assignment, value float64, ts models.TimeSignature) error {
	switch a.Parameter {
	case ParamVelocity:
		note.Velocity = math.Min(127, combine(a.Operator, note.Velocity, value))
	case ParamTiming:
		start := combine(a.Operator, note.StartTime, ts.MusicalToBeats(value))
		if !isFinite(start) {
			return evalErrorf("timing overflowed")
		}
		note.StartTime = start
	case ParamDuration:
		duration := combine(a.Operator, note.Duration, ts.MusicalToBeats(value))
		if !isFinite(duration) {
			return evalErrorf("duration overflowed")
		}
		note.Duration = duration
	case ParamProbability:
		p := clamp(0, 1, combine(a.Operator, note.ProbabilityOrDefault(), value))
		note.Probability = &p
	case ParamDeviation:
		d := clamp(-127, 127, combine(a.Operator, note.DeviationOrDefault(), value))
		note.VelocityDeviation = &d
	case ParamPitch:
		p := clamp(0, 127, roundHalfUp(combine(a.Operator, float64(note.Pitch), value)))
		note.Pitch = int(p)
	}
	return nil
}
