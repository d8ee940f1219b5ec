package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScale(t *testing.T) {
	cMajor, err := ParseScale("C major")
	require.NoError(t, err)
	assert.Equal(t, 0b101010110101, cMajor)

	dMinor, err := ParseScale("D minor")
	require.NoError(t, err)
	// D E F G A Bb C
	for _, pc := range []int{2, 4, 5, 7, 9, 10, 0} {
		assert.True(t, InScale(pc, dMinor), "pitch class %d", pc)
	}
	assert.False(t, InScale(11, dMinor))

	_, err = ParseScale("C")
	assert.Error(t, err)
	_, err = ParseScale("H major")
	assert.Error(t, err)
	_, err = ParseScale("C bebop")
	assert.Error(t, err)
}

func TestQuantize(t *testing.T) {
	cMajor := ScaleMask(0, scaleIntervals["major"])

	tests := []struct {
		name     string
		pitch    float64
		mask     int
		expected float64
	}{
		{"in scale", 60, cMajor, 60},
		{"C# ties down to C", 61, cMajor, 60},
		{"F# ties down to F", 66, cMajor, 65},
		{"rounds first", 63.7, cMajor, 64},
		{"no mask passes through", 61.5, 0, 61.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Quantize(tt.pitch, tt.mask))
		})
	}

	// Pentatonic has a minor third gap: D# is 1 from D and 1 from E, lower wins
	pentatonic := ScaleMask(0, scaleIntervals["major pentatonic"])
	assert.Equal(t, 62.0, Quantize(63, pentatonic))

	// C minor pentatonic: B sits between Bb and C, scan order reaches C first
	minorPentatonic := ScaleMask(0, scaleIntervals["minor pentatonic"])
	assert.Equal(t, 72.0, Quantize(71, minorPentatonic))
	assert.Equal(t, 60.0, Quantize(59, minorPentatonic))
	assert.Equal(t, 58.0, Quantize(58, minorPentatonic))
}

func TestStep(t *testing.T) {
	cMajor := ScaleMask(0, scaleIntervals["major"])

	assert.Equal(t, 64.0, Step(60, 2, cMajor))  // C -> E
	assert.Equal(t, 72.0, Step(60, 7, cMajor))  // octave
	assert.Equal(t, 59.0, Step(60, -1, cMajor)) // C -> B
	assert.Equal(t, 62.0, Step(61, 1, cMajor))  // C# quantizes to C first
	assert.Equal(t, 63.0, Step(60, 3, 0))       // no scale: semitones
}

func TestStepLargeOffsets(t *testing.T) {
	cMajor := ScaleMask(0, scaleIntervals["major"])

	tests := []struct {
		name     string
		base     float64
		offset   float64
		expected float64
	}{
		{"two octaves up", 60, 14, 84},
		{"two octaves and a degree down", 60, -15, 35},
		{"thousand octaves", 60, 7000, 12060},
		{"octaves plus remainder", 60, 7*1000 + 6, 12071},
		{"hundreds of millions of degrees", 60, 3e8, 60 + 12*42857142 + 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Step(tt.base, tt.offset, cMajor))
		})
	}
}
