package models

// NoteEvent is a single MIDI note inside a clip.
// StartTime and Duration are always quarter-note beats, independent of the time signature.
type NoteEvent struct {
	Pitch             int      `json:"pitch"`
	StartTime         float64  `json:"start_time"`
	Duration          float64  `json:"duration"`
	Velocity          float64  `json:"velocity"`
	Probability       *float64 `json:"probability,omitempty"`
	VelocityDeviation *float64 `json:"velocity_deviation,omitempty"`
}

// ProbabilityOrDefault returns the trigger probability, 1 when unset
func (n *NoteEvent) ProbabilityOrDefault() float64 {
	if n.Probability == nil {
		return 1
	}
	return *n.Probability
}

// DeviationOrDefault returns the velocity deviation, 0 when unset
func (n *NoteEvent) DeviationOrDefault() float64 {
	if n.VelocityDeviation == nil {
		return 0
	}
	return *n.VelocityDeviation
}

// End returns the note end in quarter-note beats
func (n *NoteEvent) End() float64 {
	return n.StartTime + n.Duration
}

// TimeSignature is a meter like 4/4 or 6/8
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// CommonTime is 4/4
var CommonTime = TimeSignature{Numerator: 4, Denominator: 4}

// BeatsToMusical converts quarter-note beats into musical beats (units of the denominator)
func (ts TimeSignature) BeatsToMusical(beats float64) float64 {
	return beats * float64(ts.Denominator) / 4
}

// MusicalToBeats converts musical beats back into quarter-note beats
func (ts TimeSignature) MusicalToBeats(musical float64) float64 {
	return musical * 4 / float64(ts.Denominator)
}

// Valid reports whether both parts are positive
func (ts TimeSignature) Valid() bool {
	return ts.Numerator > 0 && ts.Denominator > 0
}

// ClipContext carries read-only clip-level values exposed to transforms.
// ClipDuration, ArrangementStart and BarDuration are in musical beats.
type ClipContext struct {
	ClipDuration        float64  `json:"clip_duration"`
	ClipIndex           int      `json:"clip_index"`
	ClipCount           int      `json:"clip_count"`
	ArrangementStart    *float64 `json:"arrangement_start,omitempty"` // nil for session clips
	BarDuration         float64  `json:"bar_duration"`
	ScalePitchClassMask *int     `json:"scale_pitch_class_mask,omitempty"`
}

// AudioProperties are the clip-level values an audio transform can change
type AudioProperties struct {
	Gain       float64 `json:"gain"`        // dB
	PitchShift float64 `json:"pitch_shift"` // semitones
}

// AudioResult holds audio transform output; nil means the program never touched that property
type AudioResult struct {
	Gain       *float64 `json:"gain"`
	PitchShift *float64 `json:"pitch_shift"`
}
