// Package midifile converts between Standard MIDI Files and note lists.
// Times in a Clip are quarter-note beats, matching models.NoteEvent.
package midifile

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarter = 960
	defaultBPM      = 120.0
)

// Clip is the note content of a MIDI file
type Clip struct {
	Notes         []models.NoteEvent
	TimeSignature models.TimeSignature
	BPM           float64
	Channel       uint8 // channel of the first note; used when writing
}

// Duration is the end of the last note, in quarter-note beats
func (c *Clip) Duration() float64 {
	var end float64
	for _, n := range c.Notes {
		end = math.Max(end, n.End())
	}
	return end
}

// ReadFile loads every note of every track in path
func ReadFile(path string) (*Clip, error) {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return fromSMF(rd)
}

// Read loads a MIDI file from r
func Read(r io.Reader) (*Clip, error) {
	rd, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI data: %w", err)
	}
	return fromSMF(rd)
}

type openNote struct {
	tick     uint64
	velocity uint8
}

func fromSMF(rd *smf.SMF) (*Clip, error) {
	ticks, ok := rd.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %s (only metric ticks)", rd.TimeFormat)
	}
	resolution := float64(ticks.Ticks4th())

	clip := &Clip{TimeSignature: models.CommonTime, BPM: defaultBPM}
	if tempos := rd.TempoChanges(); len(tempos) > 0 {
		clip.BPM = tempos[0].BPM
	}

	meterFound, channelFound := false, false
	for _, track := range rd.Tracks {
		var abs uint64
		open := make(map[[2]uint8][]openNote)

		for _, ev := range track {
			abs += uint64(ev.Delta)

			var num, denom uint8
			if !meterFound && ev.Message.GetMetaMeter(&num, &denom) {
				clip.TimeSignature = models.TimeSignature{Numerator: int(num), Denominator: int(denom)}
				meterFound = true
				continue
			}

			msg := midi.Message(ev.Message)
			var channel, key, velocity uint8
			switch {
			case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				k := [2]uint8{channel, key}
				open[k] = append(open[k], openNote{tick: abs, velocity: velocity})
				if !channelFound {
					clip.Channel = channel
					channelFound = true
				}
			case msg.GetNoteOn(&channel, &key, &velocity), msg.GetNoteOff(&channel, &key, &velocity):
				k := [2]uint8{channel, key}
				pending := open[k]
				if len(pending) == 0 {
					continue
				}
				start := pending[0]
				open[k] = pending[1:]
				clip.Notes = append(clip.Notes, models.NoteEvent{
					Pitch:     int(key),
					StartTime: float64(start.tick) / resolution,
					Duration:  float64(abs-start.tick) / resolution,
					Velocity:  float64(start.velocity),
				})
			}
		}
	}

	sortNotes(clip.Notes)
	return clip, nil
}

// WriteFile stores the clip as a format 1 file: a meter/tempo track and a note track
func WriteFile(path string, clip *Clip) error {
	sm, err := toSMF(clip)
	if err != nil {
		return err
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// Write encodes the clip to w
func Write(w io.Writer, clip *Clip) error {
	sm, err := toSMF(clip)
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI data: %w", err)
	}
	return nil
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  midi.Message
}

func toSMF(clip *Clip) (*smf.SMF, error) {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	ts := clip.TimeSignature
	if !ts.Valid() {
		ts = models.CommonTime
	}
	bpm := clip.BPM
	if bpm <= 0 {
		bpm = defaultBPM
	}

	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(uint8(ts.Numerator), uint8(ts.Denominator))) //nolint:gosec // meter values are small
	track0.Add(0, smf.MetaTempo(bpm))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return nil, fmt.Errorf("error adding tempo track: %w", err)
	}

	events := make([]timedMessage, 0, len(clip.Notes)*2)
	for _, n := range clip.Notes {
		if n.Duration <= 0 || n.Velocity < 1 {
			continue
		}
		key := uint8(clampInt(n.Pitch, 0, 127))                          //nolint:gosec // clamped
		velocity := uint8(clampInt(int(math.Round(n.Velocity)), 1, 127)) //nolint:gosec // clamped
		start := toTicks(n.StartTime)
		end := toTicks(n.End())
		if end <= start {
			end = start + 1
		}
		events = append(events,
			timedMessage{tick: start, msg: midi.NoteOn(clip.Channel, key, velocity)},
			timedMessage{tick: end, off: true, msg: midi.NoteOff(clip.Channel, key)},
		)
	}
	// note-offs go first at equal ticks so a repeated pitch retriggers cleanly
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var track smf.Track
	var last uint32
	for _, ev := range events {
		track.Add(ev.tick-last, ev.msg)
		last = ev.tick
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return nil, fmt.Errorf("error adding note track: %w", err)
	}

	return sm, nil
}

// toTicks converts quarter-note beats to ticks; negative times start at zero
func toTicks(beats float64) uint32 {
	if beats <= 0 {
		return 0
	}
	return uint32(math.Round(beats * ticksPerQuarter))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortNotes(notes []models.NoteEvent) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].StartTime != notes[j].StartTime {
			return notes[i].StartTime < notes[j].StartTime
		}
		return notes[i].Pitch < notes[j].Pitch
	})
}
