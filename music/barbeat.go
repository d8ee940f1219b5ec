package music

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BarBeat is a 1-based bar|beat position. Beat may be fractional.
type BarBeat struct {
	Bar  int
	Beat float64
}

func (bb BarBeat) String() string {
	return fmt.Sprintf("%d|%s", bb.Bar, strconv.FormatFloat(bb.Beat, 'f', -1, 64))
}

// MusicalBeatsToBarBeat maps a musical-beat offset from the clip start to a bar|beat position
func MusicalBeatsToBarBeat(musicalBeats float64, numerator int) BarBeat {
	n := float64(numerator)
	bar := math.Floor(musicalBeats / n)
	beat := musicalBeats - bar*n
	return BarBeat{Bar: int(bar) + 1, Beat: beat + 1}
}

// BarBeatToMusicalBeats maps a bar|beat position to a musical-beat offset from the clip start
func BarBeatToMusicalBeats(bar int, beat float64, numerator int) float64 {
	return float64(bar-1)*float64(numerator) + (beat - 1)
}

// BarBeatDurationToMusicalBeats converts a bars:beats duration to musical beats.
// Unlike positions, durations are 0-based: 1:0 is one full bar.
func BarBeatDurationToMusicalBeats(bars, beats float64, numerator int) float64 {
	return bars*float64(numerator) + beats
}

// ParseBarBeatDuration parses "bars:beats" or plain "beats" into musical beats
func ParseBarBeatDuration(literal string, numerator int) (float64, error) {
	literal = strings.TrimSuffix(strings.TrimSpace(literal), "t")
	if literal == "" {
		return 0, fmt.Errorf("empty duration")
	}

	barsPart, beatsPart, hasBars := strings.Cut(literal, ":")
	if !hasBars {
		beats, err := strconv.ParseFloat(barsPart, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", literal, err)
		}
		return beats, nil
	}

	bars, err := strconv.ParseFloat(barsPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bars in duration %q: %w", literal, err)
	}
	beats, err := strconv.ParseFloat(beatsPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid beats in duration %q: %w", literal, err)
	}
	return BarBeatDurationToMusicalBeats(bars, beats, numerator), nil
}
