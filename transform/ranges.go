package transform

import (
	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/music"
)

// ResolvePitchRanges folds the program left to right: an assignment without its own
// pitch range inherits the most recent one set by any earlier assignment.
// A nil entry means "no filter".
func ResolvePitchRanges(assignments []Assignment) []*PitchRange {
	resolved := make([]*PitchRange, len(assignments))
	var active *PitchRange
	for i, a := range assignments {
		if a.PitchRange != nil {
			active = a.PitchRange
		}
		resolved[i] = active
	}
	return resolved
}

// musicalRange converts an explicit bar|beat selector to musical beats
func (r BarBeatRange) musicalRange(numerator int) TimeRange {
	return TimeRange{
		Start: music.BarBeatToMusicalBeats(r.StartBar, r.StartBeat, numerator),
		End:   music.BarBeatToMusicalBeats(r.EndBar, r.EndBeat, numerator),
	}
}

// Contains checks a bar|beat position against the selector, both ends inclusive
func (r BarBeatRange) Contains(pos music.BarBeat) bool {
	afterStart := pos.Bar > r.StartBar || (pos.Bar == r.StartBar && pos.Beat >= r.StartBeat)
	beforeEnd := pos.Bar < r.EndBar || (pos.Bar == r.EndBar && pos.Beat <= r.EndBeat)
	return afterStart && beforeEnd
}

// resolveTimeRange picks the statement's range: its own selector, else the clip-wide default.
// Time ranges are never inherited.
func resolveTimeRange(a Assignment, numerator int, clipRange TimeRange) TimeRange {
	if a.TimeRange != nil {
		return a.TimeRange.musicalRange(numerator)
	}
	return clipRange
}

// inTimeRange reports whether a note position passes the statement's time selector
func inTimeRange(a Assignment, pos *music.BarBeat) bool {
	if a.TimeRange == nil || pos == nil {
		return true
	}
	return a.TimeRange.Contains(*pos)
}

// notesTimeRange spans from the first note start to the last note end, in musical beats
func notesTimeRange(notes []models.NoteEvent, ts models.TimeSignature) TimeRange {
	if len(notes) == 0 {
		return TimeRange{}
	}
	start := notes[0].StartTime
	end := notes[0].End()
	for i := range notes {
		if notes[i].StartTime < start {
			start = notes[i].StartTime
		}
		if e := notes[i].End(); e > end {
			end = e
		}
	}
	return TimeRange{Start: ts.BeatsToMusical(start), End: ts.BeatsToMusical(end)}
}
