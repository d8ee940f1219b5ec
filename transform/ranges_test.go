package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/music"
)

func TestResolvePitchRanges_Fold(t *testing.T) {
	program, err := Parse(`velocity = 1
C3: velocity = 2
velocity = 3
E3-G3: velocity = 4
velocity = 5
velocity = 6`)
	require.NoError(t, err)

	ranges := ResolvePitchRanges(program.Assignments)
	require.Len(t, ranges, 6)

	assert.Nil(t, ranges[0])
	assert.Equal(t, &PitchRange{StartPitch: 60, EndPitch: 60}, ranges[1])
	assert.Equal(t, &PitchRange{StartPitch: 60, EndPitch: 60}, ranges[2])
	assert.Equal(t, &PitchRange{StartPitch: 64, EndPitch: 67}, ranges[3])
	assert.Equal(t, &PitchRange{StartPitch: 64, EndPitch: 67}, ranges[4])
	assert.Equal(t, &PitchRange{StartPitch: 64, EndPitch: 67}, ranges[5])
}

func TestBarBeatRange_Contains(t *testing.T) {
	r := BarBeatRange{StartBar: 2, StartBeat: 2, EndBar: 3, EndBeat: 1.5}

	tests := []struct {
		pos      music.BarBeat
		expected bool
	}{
		{music.BarBeat{Bar: 1, Beat: 4}, false},
		{music.BarBeat{Bar: 2, Beat: 1.5}, false},
		{music.BarBeat{Bar: 2, Beat: 2}, true},
		{music.BarBeat{Bar: 2, Beat: 4.9}, true},
		{music.BarBeat{Bar: 3, Beat: 1.5}, true},
		{music.BarBeat{Bar: 3, Beat: 1.75}, false},
		{music.BarBeat{Bar: 4, Beat: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.pos.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Contains(tt.pos))
		})
	}
}

func TestResolveTimeRange(t *testing.T) {
	clipRange := TimeRange{Start: 0, End: 16}

	explicit := Assignment{TimeRange: &BarBeatRange{StartBar: 2, StartBeat: 1, EndBar: 3, EndBeat: 1}}
	assert.Equal(t, TimeRange{Start: 4, End: 8}, resolveTimeRange(explicit, 4, clipRange))
	assert.Equal(t, TimeRange{Start: 6, End: 12}, resolveTimeRange(explicit, 6, clipRange))

	assert.Equal(t, clipRange, resolveTimeRange(Assignment{}, 4, clipRange))
}

func TestNotesTimeRange(t *testing.T) {
	notes := []models.NoteEvent{
		{Pitch: 60, StartTime: 1, Duration: 0.5},
		{Pitch: 62, StartTime: 2, Duration: 3},
		{Pitch: 64, StartTime: 3, Duration: 0.5},
	}

	assert.Equal(t, TimeRange{Start: 1, End: 5}, notesTimeRange(notes, models.CommonTime))
	// 6/8: quarter-note beats double into eighth-note beats
	assert.Equal(t, TimeRange{Start: 2, End: 10}, notesTimeRange(notes, models.TimeSignature{Numerator: 6, Denominator: 8}))
	assert.Equal(t, TimeRange{}, notesTimeRange(nil, models.CommonTime))
}
