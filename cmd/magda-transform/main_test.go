package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-transforms-go/config"
	"github.com/Conceptual-Machines/magda-transforms-go/midifile"
	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/transform"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-in", "a.mid", "-program", "velocity += 1", "-clip-index", "2", "-clip-count", "4"})
	require.NoError(t, err)
	assert.Equal(t, "a.mid", opts.in)
	assert.Equal(t, 2, opts.clipIndex)
	assert.Empty(t, opts.position)

	_, err = parseFlags([]string{"-program", "x", "-file", "y"})
	assert.Error(t, err)
}

func TestParseAudioProperties(t *testing.T) {
	props, err := parseAudioProperties("-6, 2")
	require.NoError(t, err)
	assert.Equal(t, models.AudioProperties{Gain: -6, PitchShift: 2}, props)

	_, err = parseAudioProperties("-6")
	assert.Error(t, err)
	_, err = parseAudioProperties("loud,2")
	assert.Error(t, err)
}

func TestBuildClipContext(t *testing.T) {
	opts := &options{clipIndex: 1, clipCount: 3, position: "5:1t", scale: "C major"}

	clipCtx, err := buildClipContext(opts, models.TimeSignature{Numerator: 3, Denominator: 4}, 12)
	require.NoError(t, err)

	assert.Equal(t, 12.0, clipCtx.ClipDuration)
	assert.Equal(t, 3.0, clipCtx.BarDuration)
	require.NotNil(t, clipCtx.ArrangementStart)
	assert.Equal(t, 16.0, *clipCtx.ArrangementStart, "5 bars of 3/4 plus one beat")
	require.NotNil(t, clipCtx.ScalePitchClassMask)
	assert.Equal(t, 0b101010110101, *clipCtx.ScalePitchClassMask)

	_, err = buildClipContext(&options{clipIndex: 3, clipCount: 3}, models.CommonTime, 0)
	assert.Error(t, err)
}

func TestRun_MIDI(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mid")
	out := filepath.Join(dir, "out.mid")
	require.NoError(t, midifile.WriteFile(in, &midifile.Clip{
		Notes: []models.NoteEvent{
			{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100},
			{Pitch: 64, StartTime: 1, Duration: 1, Velocity: 100},
		},
	}))

	var buf bytes.Buffer
	opts := &options{in: in, out: out, program: "C3: velocity = 50\nE3: duration = 0", clipCount: 1}
	require.NoError(t, run(context.Background(), &config.Config{}, opts, &buf))

	assert.Contains(t, buf.String(), "2 applied")
	got, err := midifile.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, 50.0, got.Notes[0].Velocity)
}

func TestRun_Audio(t *testing.T) {
	var buf bytes.Buffer
	opts := &options{audio: "-6,0", program: "gain += 3", clipCount: 1}
	require.NoError(t, run(context.Background(), &config.Config{}, opts, &buf))

	assert.Contains(t, buf.String(), "-3 dB")
}

func TestRun_SyntaxErrorAborts(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mid")
	out := filepath.Join(dir, "out.mid")
	require.NoError(t, midifile.WriteFile(in, &midifile.Clip{
		Notes: []models.NoteEvent{{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100}},
	}))

	tests := []struct {
		name string
		opts *options
	}{
		{"midi", &options{in: in, out: out, program: "velocity = (1", clipCount: 1}},
		{"midi two statements on a line", &options{in: in, out: out, program: "velocity = 1 pitch = 2", clipCount: 1}},
		{"audio", &options{audio: "-6,0", program: "gain = (1", clipCount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := run(context.Background(), &config.Config{}, tt.opts, &buf)
			require.Error(t, err)

			var syntaxErr *transform.SyntaxError
			assert.True(t, errors.As(err, &syntaxErr), "expected SyntaxError, got %T", err)
			assert.Empty(t, buf.String())

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "-out must not be written")
		})
	}
}

func TestSessionEval(t *testing.T) {
	var buf bytes.Buffer
	s := &session{
		engine:  transform.NewEngine(),
		clip:    &midifile.Clip{Notes: []models.NoteEvent{{Pitch: 60, Duration: 1, Velocity: 100}}, TimeSignature: models.CommonTime},
		clipCtx: &models.ClipContext{ClipCount: 1},
		w:       &buf,
	}

	quit, err := s.eval(context.Background(), "velocity += 10")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, 110.0, s.clip.Notes[0].Velocity)

	_, err = s.eval(context.Background(), ":reset")
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.clip.Notes[0].Velocity)

	_, err = s.eval(context.Background(), "velocity = = 3")
	assert.Error(t, err)
	assert.Equal(t, 100.0, s.clip.Notes[0].Velocity)

	_, err = s.eval(context.Background(), ":write")
	assert.Error(t, err)

	_, err = s.eval(context.Background(), ":bogus")
	assert.ErrorContains(t, err, "unknown command")

	quit, err = s.eval(context.Background(), ":quit")
	require.NoError(t, err)
	assert.True(t, quit)
}
