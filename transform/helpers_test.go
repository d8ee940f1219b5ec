package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
)

// fixedSource always returns the same value from Float64
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func ptr[T any](v T) *T { return &v }

// evalExpr parses a single expression and evaluates it against ctx
func evalExpr(t *testing.T, expr string, ctx *EvalContext) (float64, error) {
	t.Helper()
	program, err := Parse("velocity = " + expr)
	require.NoError(t, err)
	require.Len(t, program.Assignments, 1)
	return Evaluate(program.Assignments[0].Expression, ctx)
}

func noteContext(index, count int) *EvalContext {
	return &EvalContext{
		TimeSignature: models.CommonTime,
		Note:          &NoteVars{Pitch: 60, Velocity: 100, Duration: 1, Probability: 1, Index: index, Count: count},
		Random:        fixedSource(0.5),
	}
}

func makeNotes(pitches ...int) []models.NoteEvent {
	notes := make([]models.NoteEvent, len(pitches))
	for i, pitch := range pitches {
		notes[i] = models.NoteEvent{Pitch: pitch, StartTime: float64(i), Duration: 1, Velocity: 100}
	}
	return notes
}
