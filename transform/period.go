package transform

import "github.com/Conceptual-Machines/magda-transforms-go/music"

// ParsePeriod resolves a bars:beats literal to musical beats under the given numerator
func ParsePeriod(period PeriodLiteral, numerator int) (float64, error) {
	beats := music.BarBeatDurationToMusicalBeats(period.Bars, period.Beats, numerator)
	if beats <= 0 {
		return 0, evalErrorf("period must be positive, got %s", period)
	}
	return beats, nil
}
