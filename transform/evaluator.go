package transform

import (
	"math"

	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/music"
	"github.com/Conceptual-Machines/magda-transforms-go/transform/waveform"
)

// TimeRange is a span in musical beats
type TimeRange struct {
	Start float64
	End   float64
}

// NoteVars are the note.* values visible to an expression.
// Start and Duration are musical beats. Index and Count are relative to the statement's pitch filter.
type NoteVars struct {
	Pitch       float64
	Start       float64
	Velocity    float64
	Deviation   float64
	Duration    float64
	Probability float64
	Index       int
	Count       int
}

// AudioVars are the audio.* values visible to an expression
type AudioVars struct {
	Gain       float64
	PitchShift float64
}

// EvalContext is everything an expression can observe.
// Exactly one of Note and Audio is set for applier-built contexts.
type EvalContext struct {
	Position      float64 // musical beats from the clip start
	TimeSignature models.TimeSignature
	TimeRange     TimeRange
	BarBeat       *music.BarBeat
	Note          *NoteVars
	Audio         *AudioVars
	Clip          *models.ClipContext
	Random        waveform.Source
}

func (ctx *EvalContext) random() waveform.Source {
	if ctx.Random == nil {
		ctx.Random = waveform.NewSource()
	}
	return ctx.Random
}

func (ctx *EvalContext) scaleMask() (int, bool) {
	if ctx.Clip == nil || ctx.Clip.ScalePitchClassMask == nil {
		return 0, false
	}
	return *ctx.Clip.ScalePitchClassMask, true
}

// Evaluate computes expr against ctx. A NaN or infinite result at any node
// is an evaluation error so it can never reach a note or clip.
func Evaluate(expr Expr, ctx *EvalContext) (float64, error) {
	value, err := evaluate(expr, ctx)
	if err != nil {
		return 0, err
	}
	if !isFinite(value) {
		return 0, evalErrorf("expression produced a non-finite value")
	}
	return value, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func evaluate(expr Expr, ctx *EvalContext) (float64, error) {
	switch node := expr.(type) {
	case NumberLiteral:
		return node.Value, nil
	case PeriodLiteral:
		return ParsePeriod(node, ctx.TimeSignature.Numerator)
	case Variable:
		return resolveVariable(node, ctx)
	case BinaryOp:
		return evaluateBinary(node, ctx)
	case FunctionCall:
		return callFunction(node, ctx)
	case nil:
		return 0, evalErrorf("missing expression")
	default:
		return 0, evalErrorf("unsupported expression node %T", expr)
	}
}

func evaluateBinary(node BinaryOp, ctx *EvalContext) (float64, error) {
	left, err := Evaluate(node.Left, ctx)
	if err != nil {
		return 0, err
	}
	right, err := Evaluate(node.Right, ctx)
	if err != nil {
		return 0, err
	}

	switch node.Kind {
	case BinaryAdd:
		return left + right, nil
	case BinarySubtract:
		return left - right, nil
	case BinaryMultiply:
		return left * right, nil
	case BinaryDivide:
		if right == 0 {
			return 0, nil
		}
		return left / right, nil
	case BinaryModulo:
		if right == 0 {
			return 0, nil
		}
		return math.Mod(math.Mod(left, right)+right, right), nil
	default:
		return 0, evalErrorf("unknown operator %q", node.Kind)
	}
}

func resolveVariable(v Variable, ctx *EvalContext) (float64, error) {
	switch v.Namespace {
	case "note":
		return resolveNoteVariable(v, ctx)
	case "audio":
		return resolveAudioVariable(v, ctx)
	case "clip":
		return resolveClipVariable(v, ctx)
	case "bar":
		if ctx.Clip == nil {
			return 0, evalErrorf("variable %s requires clip context", v)
		}
		if v.Name == "duration" {
			return ctx.Clip.BarDuration, nil
		}
	case "scale":
		if v.Name == "mask" {
			mask, ok := ctx.scaleMask()
			if !ok {
				return 0, evalErrorf("variable scale.mask is not set: the clip has no scale")
			}
			return float64(mask), nil
		}
	}
	return 0, evalErrorf("unknown variable %s (namespace %q, property %q)", v, v.Namespace, v.Name)
}

func resolveNoteVariable(v Variable, ctx *EvalContext) (float64, error) {
	if ctx.Note == nil {
		if ctx.Audio != nil {
			return 0, evalErrorf("variable %s is not available for audio clips", v)
		}
		return 0, evalErrorf("variable %s requires a note", v)
	}

	n := ctx.Note
	switch v.Name {
	case "pitch":
		return n.Pitch, nil
	case "start":
		return n.Start, nil
	case "velocity":
		return n.Velocity, nil
	case "deviation":
		return n.Deviation, nil
	case "duration":
		return n.Duration, nil
	case "probability":
		return n.Probability, nil
	case "index":
		return float64(n.Index), nil
	case "count":
		return float64(n.Count), nil
	}
	return 0, evalErrorf("unknown variable %s (namespace %q, property %q)", v, v.Namespace, v.Name)
}

func resolveAudioVariable(v Variable, ctx *EvalContext) (float64, error) {
	if ctx.Audio == nil {
		return 0, evalErrorf("variable %s is only available for audio clips", v)
	}

	switch v.Name {
	case "gain":
		return ctx.Audio.Gain, nil
	case "pitchShift":
		return ctx.Audio.PitchShift, nil
	}
	return 0, evalErrorf("unknown variable %s (namespace %q, property %q)", v, v.Namespace, v.Name)
}

func resolveClipVariable(v Variable, ctx *EvalContext) (float64, error) {
	if ctx.Clip == nil {
		return 0, evalErrorf("variable %s requires clip context", v)
	}

	switch v.Name {
	case "duration":
		return ctx.Clip.ClipDuration, nil
	case "index":
		return float64(ctx.Clip.ClipIndex), nil
	case "count":
		return float64(ctx.Clip.ClipCount), nil
	case "position":
		if ctx.Clip.ArrangementStart == nil {
			return 0, evalErrorf("variable clip.position is not available for session clips")
		}
		return *ctx.Clip.ArrangementStart, nil
	}
	return 0, evalErrorf("unknown variable %s (namespace %q, property %q)", v, v.Namespace, v.Name)
}
