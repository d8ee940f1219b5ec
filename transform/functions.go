package transform

import (
	"math"

	"github.com/Conceptual-Machines/magda-transforms-go/music"
	"github.com/Conceptual-Machines/magda-transforms-go/transform/waveform"
)

// callFunction dispatches a built-in. Arguments are evaluated on demand, left to right.
func callFunction(call FunctionCall, ctx *EvalContext) (float64, error) {
	if call.Sync && !isWaveform(call.Name) {
		return 0, evalErrorf("%s() does not accept sync", call.Name)
	}

	switch call.Name {
	case "noise":
		if err := checkArity(call, 0, 0); err != nil {
			return 0, err
		}
		return waveform.Noise(ctx.random()), nil

	case "round", "floor", "abs":
		if err := checkArity(call, 1, 1); err != nil {
			return 0, err
		}
		x, err := Evaluate(call.Args[0], ctx)
		if err != nil {
			return 0, err
		}
		switch call.Name {
		case "round":
			return math.Floor(x + 0.5), nil
		case "floor":
			return math.Floor(x), nil
		default:
			return math.Abs(x), nil
		}

	case "min", "max":
		return reduceMinMax(call, ctx)

	case "ramp":
		return callRamp(call, ctx)

	case "curve":
		return callCurve(call, ctx)

	case "cos", "tri", "saw", "square":
		return callWaveform(call, ctx)

	case "rand":
		return callRand(call, ctx)

	case "choose":
		if err := checkArity(call, 1, -1); err != nil {
			return 0, err
		}
		i := waveform.ChooseIndex(ctx.random(), len(call.Args))
		return Evaluate(call.Args[i], ctx)

	case "seq":
		if err := checkArity(call, 1, -1); err != nil {
			return 0, err
		}
		n := len(call.Args)
		i := ((sequenceIndex(ctx) % n) + n) % n
		return Evaluate(call.Args[i], ctx)

	case "quant":
		if err := checkArity(call, 1, 1); err != nil {
			return 0, err
		}
		pitch, err := Evaluate(call.Args[0], ctx)
		if err != nil {
			return 0, err
		}
		if !isFinite(pitch) {
			return 0, evalErrorf("quant() needs a finite pitch, got %v", pitch)
		}
		if mask, ok := ctx.scaleMask(); ok {
			return music.Quantize(pitch, mask), nil
		}
		return pitch, nil

	case "step":
		if err := checkArity(call, 2, 2); err != nil {
			return 0, err
		}
		base, err := Evaluate(call.Args[0], ctx)
		if err != nil {
			return 0, err
		}
		offset, err := Evaluate(call.Args[1], ctx)
		if err != nil {
			return 0, err
		}
		if !isFinite(base) || !isFinite(offset) {
			return 0, evalErrorf("step() needs finite arguments, got %v and %v", base, offset)
		}
		if mask, ok := ctx.scaleMask(); ok {
			return music.Step(base, offset, mask), nil
		}
		return base + offset, nil
	}

	return 0, evalErrorf("unknown function %s()", call.Name)
}

func isWaveform(name string) bool {
	switch name {
	case "cos", "tri", "saw", "square":
		return true
	}
	return false
}

// checkArity validates the argument count; maxArgs < 0 means unbounded
func checkArity(call FunctionCall, minArgs, maxArgs int) error {
	n := len(call.Args)
	switch {
	case maxArgs == minArgs && n != minArgs:
		return evalErrorf("%s() expects %d argument(s), got %d", call.Name, minArgs, n)
	case n < minArgs:
		return evalErrorf("%s() expects at least %d argument(s), got %d", call.Name, minArgs, n)
	case maxArgs >= 0 && n > maxArgs:
		return evalErrorf("%s() expects at most %d argument(s), got %d", call.Name, maxArgs, n)
	}
	return nil
}

// optionalArg evaluates args[i] or returns fallback when it was omitted
func optionalArg(call FunctionCall, i int, fallback float64, ctx *EvalContext) (float64, error) {
	if i >= len(call.Args) {
		return fallback, nil
	}
	return Evaluate(call.Args[i], ctx)
}

func reduceMinMax(call FunctionCall, ctx *EvalContext) (float64, error) {
	if err := checkArity(call, 2, -1); err != nil {
		return 0, err
	}

	result, err := Evaluate(call.Args[0], ctx)
	if err != nil {
		return 0, err
	}
	for _, arg := range call.Args[1:] {
		v, err := Evaluate(arg, ctx)
		if err != nil {
			return 0, err
		}
		if call.Name == "min" {
			result = math.Min(result, v)
		} else {
			result = math.Max(result, v)
		}
	}
	return result, nil
}

// rangePhase is the position's progress through the active time range, 0 for an empty range
func rangePhase(ctx *EvalContext) float64 {
	width := ctx.TimeRange.End - ctx.TimeRange.Start
	if width == 0 {
		return 0
	}
	return (ctx.Position - ctx.TimeRange.Start) / width
}

func callRamp(call FunctionCall, ctx *EvalContext) (float64, error) {
	if err := checkArity(call, 2, 3); err != nil {
		return 0, err
	}
	start, err := Evaluate(call.Args[0], ctx)
	if err != nil {
		return 0, err
	}
	end, err := Evaluate(call.Args[1], ctx)
	if err != nil {
		return 0, err
	}
	speed, err := optionalArg(call, 2, 1, ctx)
	if err != nil {
		return 0, err
	}
	if speed <= 0 {
		return 0, evalErrorf("ramp() speed must be > 0, got %g", speed)
	}
	return waveform.Ramp(rangePhase(ctx), start, end, speed), nil
}

func callCurve(call FunctionCall, ctx *EvalContext) (float64, error) {
	if err := checkArity(call, 3, 3); err != nil {
		return 0, err
	}
	start, err := Evaluate(call.Args[0], ctx)
	if err != nil {
		return 0, err
	}
	end, err := Evaluate(call.Args[1], ctx)
	if err != nil {
		return 0, err
	}
	exponent, err := Evaluate(call.Args[2], ctx)
	if err != nil {
		return 0, err
	}
	if exponent <= 0 {
		return 0, evalErrorf("curve() exponent must be > 0, got %g", exponent)
	}
	return waveform.Curve(rangePhase(ctx), start, end, exponent), nil
}

func callWaveform(call FunctionCall, ctx *EvalContext) (float64, error) {
	maxArgs := 2
	if call.Name == "square" {
		maxArgs = 3
	}
	if err := checkArity(call, 1, maxArgs); err != nil {
		return 0, err
	}

	period, err := resolvePeriod(call, ctx)
	if err != nil {
		return 0, err
	}
	phaseOffset, err := optionalArg(call, 1, 0, ctx)
	if err != nil {
		return 0, err
	}

	position := ctx.Position
	if call.Sync {
		if ctx.Clip == nil || ctx.Clip.ArrangementStart == nil {
			return 0, evalErrorf("%s(..., sync) requires an arrangement clip", call.Name)
		}
		position += *ctx.Clip.ArrangementStart
	}
	phase := waveform.Wrap(position/period) + phaseOffset

	switch call.Name {
	case "cos":
		return waveform.Cos(phase), nil
	case "tri":
		return waveform.Tri(phase), nil
	case "saw":
		return waveform.Saw(phase), nil
	default:
		pulseWidth, err := optionalArg(call, 2, 0.5, ctx)
		if err != nil {
			return 0, err
		}
		return waveform.Square(phase, pulseWidth), nil
	}
}

func resolvePeriod(call FunctionCall, ctx *EvalContext) (float64, error) {
	if literal, ok := call.Args[0].(PeriodLiteral); ok {
		return ParsePeriod(literal, ctx.TimeSignature.Numerator)
	}
	period, err := Evaluate(call.Args[0], ctx)
	if err != nil {
		return 0, err
	}
	if period <= 0 {
		return 0, evalErrorf("%s() period must be > 0, got %g", call.Name, period)
	}
	return period, nil
}

func callRand(call FunctionCall, ctx *EvalContext) (float64, error) {
	if err := checkArity(call, 0, 2); err != nil {
		return 0, err
	}

	switch len(call.Args) {
	case 0:
		return waveform.Noise(ctx.random()), nil
	case 1:
		hi, err := Evaluate(call.Args[0], ctx)
		if err != nil {
			return 0, err
		}
		return waveform.Rand(ctx.random(), 0, hi), nil
	default:
		lo, err := Evaluate(call.Args[0], ctx)
		if err != nil {
			return 0, err
		}
		hi, err := Evaluate(call.Args[1], ctx)
		if err != nil {
			return 0, err
		}
		return waveform.Rand(ctx.random(), lo, hi), nil
	}
}

// sequenceIndex prefers note.index, then clip.index, then 0
func sequenceIndex(ctx *EvalContext) int {
	if ctx.Note != nil {
		return ctx.Note.Index
	}
	if ctx.Clip != nil {
		return ctx.Clip.ClipIndex
	}
	return 0
}
