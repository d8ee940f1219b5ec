package midifile

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
)

func TestWriteRead(t *testing.T) {
	clip := &Clip{
		Notes: []models.NoteEvent{
			{Pitch: 64, StartTime: 1, Duration: 0.5, Velocity: 90},
			{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100},
			{Pitch: 67, StartTime: 0, Duration: 2, Velocity: 70.4},
		},
		TimeSignature: models.TimeSignature{Numerator: 6, Denominator: 8},
		BPM:           96,
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, clip))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, models.TimeSignature{Numerator: 6, Denominator: 8}, got.TimeSignature)
	assert.InDelta(t, 96.0, got.BPM, 0.01)
	require.Len(t, got.Notes, 3)
	assert.Equal(t, models.NoteEvent{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100}, got.Notes[0])
	assert.Equal(t, models.NoteEvent{Pitch: 67, StartTime: 0, Duration: 2, Velocity: 70}, got.Notes[1])
	assert.Equal(t, models.NoteEvent{Pitch: 64, StartTime: 1, Duration: 0.5, Velocity: 90}, got.Notes[2])
	assert.Equal(t, 2.0, got.Duration())
}

func TestWrite_SkipsDeletedNotesAndClamps(t *testing.T) {
	clip := &Clip{
		Notes: []models.NoteEvent{
			{Pitch: 60, StartTime: 0, Duration: 0, Velocity: 100},
			{Pitch: 62, StartTime: 0, Duration: 1, Velocity: 0.5},
			{Pitch: 200, StartTime: -1, Duration: 2, Velocity: 300},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, clip))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, models.CommonTime, got.TimeSignature)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, models.NoteEvent{Pitch: 127, StartTime: 0, Duration: 1, Velocity: 127}, got.Notes[0])
}

func TestWrite_RepeatedPitch(t *testing.T) {
	clip := &Clip{
		Notes: []models.NoteEvent{
			{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100},
			{Pitch: 60, StartTime: 1, Duration: 1, Velocity: 80},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, clip))
	got, err := Read(&buf)
	require.NoError(t, err)

	require.Len(t, got.Notes, 2)
	assert.Equal(t, 1.0, got.Notes[0].Duration)
	assert.Equal(t, 80.0, got.Notes[1].Velocity)
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mid")
	clip := &Clip{Notes: []models.NoteEvent{{Pitch: 48, StartTime: 0.25, Duration: 0.25, Velocity: 64}}}

	require.NoError(t, WriteFile(path, clip))
	got, err := ReadFile(path)
	require.NoError(t, err)

	require.Len(t, got.Notes, 1)
	assert.Equal(t, clip.Notes[0], got.Notes[0])
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.mid"))
	assert.ErrorContains(t, err, "failed to read MIDI file")
}
