package prompt

import (
	"fmt"
	"strings"
)

// TransformPromptBuilder builds prompts for the transform authoring agent
type TransformPromptBuilder struct {
	grammar string
}

// NewTransformPromptBuilder creates a builder that embeds the given grammar
func NewTransformPromptBuilder(grammar string) *TransformPromptBuilder {
	return &TransformPromptBuilder{grammar: grammar}
}

// BuildPrompt builds the complete system prompt
func (b *TransformPromptBuilder) BuildPrompt() string {
	sections := []string{
		b.getSystemInstructions(),
		b.getLanguageReference(),
		b.getExamples(),
		b.getOutputFormatInstructions(),
	}
	if b.grammar != "" {
		sections = append(sections, "## Grammar (Lark)\n\n"+strings.TrimSpace(b.grammar))
	}

	return strings.Join(sections, "\n\n")
}

// ClipInfo describes the clip a program is written for
type ClipInfo struct {
	TimeSignature string // "4/4"
	Audio         bool
	NoteCount     int
	Bars          int
	Scale         string // "D minor", empty when unknown
}

// BuildUserMessage wraps a natural language request with the clip it targets
func (b *TransformPromptBuilder) BuildUserMessage(request string, clip *ClipInfo) string {
	if clip == nil {
		return request
	}

	var sb strings.Builder
	sb.WriteString("Clip: ")
	if clip.Audio {
		sb.WriteString("audio clip")
	} else {
		sb.WriteString(fmt.Sprintf("MIDI clip, %d notes", clip.NoteCount))
	}
	if clip.TimeSignature != "" {
		sb.WriteString(", time signature " + clip.TimeSignature)
	}
	if clip.Bars > 0 {
		sb.WriteString(fmt.Sprintf(", %d bars", clip.Bars))
	}
	if clip.Scale != "" {
		sb.WriteString(", scale " + clip.Scale)
	}
	sb.WriteString("\n\nRequest: ")
	sb.WriteString(request)
	return sb.String()
}

// BuildRetryMessage asks the model to fix a program the parser rejected
func (b *TransformPromptBuilder) BuildRetryMessage(program string, parseErr error) string {
	return fmt.Sprintf("Your program failed to parse:\n\n%s\n\nError: %v\n\nReturn a corrected program only.", program, parseErr)
}

func (b *TransformPromptBuilder) getSystemInstructions() string {
	return `You are MAGDA, an assistant that writes transform programs for clips in a DAW.

A transform program modulates note parameters (MIDI clips) or gain and pitch shift (audio clips).
Translate the user's request into the shortest program that does exactly what was asked.

- MIDI parameters: velocity, pitch, timing, duration, probability, deviation
- Audio parameters: gain (dB), pitchShift (semitones)
- Never mix audio and MIDI parameters in one program
- Prefer "+=" when the user asks for a relative change ("louder", "shift up")`
}

//nolint:lll // Documentation strings can be long
func (b *TransformPromptBuilder) getLanguageReference() string {
	return `## Language Reference

One assignment per line: ` + "`[selector:] parameter (= | +=) expression`" + `

### Selectors
- Pitch: ` + "`C3:`" + ` or ` + "`C3-E3:`" + ` (C3 = MIDI 60). A pitch selector stays active for the following lines until another one replaces it.
- Time: ` + "`1|1-2|4:`" + ` (bar|beat, 1-based, inclusive). Applies to that line only.
- Both: ` + "`C3 1|1-1|4:`" + `

### Variables
- note.pitch, note.velocity, note.start, note.duration, note.probability, note.deviation, note.index, note.count (MIDI only)
- audio.gain, audio.pitchShift (audio only)
- clip.duration, clip.index, clip.count, clip.position, bar.duration, scale.mask

Times are in beats of the clip's meter: in 6/8, 1 beat is an eighth note.

### Functions
- Waveforms (range -1..1, period in beats or a bars:beats duration such as 2t = two beats, 1:0t = one bar, 1:2t = a bar and two beats):
  cos(period, [offset]), tri(period, [offset]), saw(period, [offset]), square(period, [offset], [pulse width]).
  Add ` + "`sync`" + ` as the last argument to lock the phase to the arrangement instead of the clip.
- ramp(start, end, [speed]), curve(start, end, exponent): across the selected time range
- rand([max]) or rand(min, max), noise(), choose(a, b, ...)
- seq(a, b, ...): picks by note.index, cycling
- round(x), floor(x), abs(x), min(a, b, ...), max(a, b, ...)
- quant(pitch, scale.mask), step(pitch, degrees, scale.mask): scale-aware pitch

Division or modulo by zero yields 0. Results are clamped: velocity 1..127 (below 1 deletes the note), pitch 0..127,
probability 0..1, gain -70..24 dB, pitchShift -48..48.`
}

func (b *TransformPromptBuilder) getExamples() string {
	return `## Examples

"fade in over the clip" → ` + "`velocity = ramp(20, 110)`" + `
"humanize" → ` + "`velocity += rand(-8, 8)\ntiming += rand(-0.02, 0.02)`" + `
"accent every other note" → ` + "`velocity = seq(110, 70)`" + `
"pump the velocity every beat" → ` + "`velocity = 80 + 30 * saw(1)`" + `
"octave up on C3 only" → ` + "`C3: pitch += 12`" + `
"turn the clip down 3 dB" → ` + "`gain += -3`" + ``
}

func (b *TransformPromptBuilder) getOutputFormatInstructions() string {
	return `## Output Format

Return only the program. No prose, no markdown, no code fences.`
}
