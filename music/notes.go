package music

import (
	"fmt"
	"strconv"
	"strings"
)

// Pitch-class offsets from C. Sharps and flats share a slot.
var noteOffsets = map[string]int{
	"C":  0,
	"C#": 1, "Db": 1,
	"D":  2,
	"D#": 3, "Eb": 3,
	"E":  4,
	"F":  5,
	"F#": 6, "Gb": 6,
	"G":  7,
	"G#": 8, "Ab": 8,
	"A":  9,
	"A#": 10, "Bb": 10,
	"B":  11,
}

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNameToMIDI converts a note name like "C3", "F#-1" or "Bb4" to a MIDI pitch.
// Octaves follow the C3 = 60 convention, so C-2 is 0 and G8 is 127.
func NoteNameToMIDI(name string) (int, error) {
	name = strings.TrimSpace(name)
	root, err := parseRootNote(name)
	if err != nil {
		return 0, err
	}

	octave, err := strconv.Atoi(name[len(root):])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note name %q", name)
	}

	pitch := (octave+2)*12 + noteOffsets[root]
	if pitch < 0 || pitch > 127 {
		return 0, fmt.Errorf("note %q is outside the MIDI range", name)
	}
	return pitch, nil
}

// MIDIToNoteName is the inverse of NoteNameToMIDI, always spelled with sharps
func MIDIToNoteName(pitch int) string {
	return fmt.Sprintf("%s%d", pitchClassNames[PitchClass(pitch)], pitch/12-2)
}

// PitchClass returns pitch mod 12, always in [0, 11]
func PitchClass(pitch int) int {
	return ((pitch % 12) + 12) % 12
}

func parseRootNote(name string) (string, error) {
	if len(name) == 0 {
		return "", fmt.Errorf("empty note name")
	}

	root := name[:1]
	if len(name) > 1 && (name[1] == '#' || name[1] == 'b') {
		root = name[:2]
	}

	if _, ok := noteOffsets[root]; !ok {
		return "", fmt.Errorf("invalid root note: %s", root)
	}
	return root, nil
}
