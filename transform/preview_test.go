package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
)

func TestEvaluateTransform(t *testing.T) {
	evalCtx := noteContext(1, 4)

	previews := EvaluateTransform("velocity += 10\npitch = note.pitch + 7\nvelocity = seq(1, 2, 3)", evalCtx)
	require.Len(t, previews, 2)

	assert.Equal(t, Preview{Operator: OperatorSet, Value: 2}, previews[ParamVelocity])
	assert.Equal(t, Preview{Operator: OperatorSet, Value: 67}, previews[ParamPitch])
}

func TestEvaluateTransform_NoClamping(t *testing.T) {
	previews := EvaluateTransform("velocity = 500", noteContext(0, 1))
	assert.Equal(t, 500.0, previews[ParamVelocity].Value)
}

func TestEvaluate_FailuresAreLeftOut(t *testing.T) {
	program, err := Parse("gain = audio.gain\nvelocity += 5")
	require.NoError(t, err)

	previews, report := testEngine().Evaluate(context.Background(), program, noteContext(0, 1))
	require.Len(t, previews, 1)
	assert.Equal(t, Preview{Operator: OperatorAdd, Value: 5}, previews[ParamVelocity])
	assert.Equal(t, 1, report.Skipped)
}

func TestEvaluate_DoesNotModifyContext(t *testing.T) {
	evalCtx := &EvalContext{Note: &NoteVars{Pitch: 60}}
	program, err := Parse("pitch = rand(0, 10)")
	require.NoError(t, err)

	previews, _ := testEngine().Evaluate(context.Background(), program, evalCtx)
	assert.Equal(t, 5.0, previews[ParamPitch].Value)
	assert.Nil(t, evalCtx.Random)
	assert.Equal(t, models.TimeSignature{}, evalCtx.TimeSignature)
}

func TestEvaluateTransform_SyntaxError(t *testing.T) {
	assert.Empty(t, EvaluateTransform("pitch ==", noteContext(0, 1)))
}
