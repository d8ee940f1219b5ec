package transform

import "fmt"

// Operator is how an assignment combines with the current value
type Operator string

const (
	OperatorSet Operator = "set"
	OperatorAdd Operator = "add"
)

// Parameter names a value a transform can write
type Parameter string

const (
	ParamVelocity    Parameter = "velocity"
	ParamTiming      Parameter = "timing"
	ParamDuration    Parameter = "duration"
	ParamProbability Parameter = "probability"
	ParamDeviation   Parameter = "deviation"
	ParamPitch       Parameter = "pitch"
	ParamGain        Parameter = "gain"
	ParamPitchShift  Parameter = "pitchShift"
)

var midiParameters = map[Parameter]bool{
	ParamVelocity:    true,
	ParamTiming:      true,
	ParamDuration:    true,
	ParamProbability: true,
	ParamDeviation:   true,
	ParamPitch:       true,
}

var audioParameters = map[Parameter]bool{
	ParamGain:       true,
	ParamPitchShift: true,
}

// IsMIDI reports whether the parameter applies to notes
func (p Parameter) IsMIDI() bool { return midiParameters[p] }

// IsAudio reports whether the parameter applies to audio clips
func (p Parameter) IsAudio() bool { return audioParameters[p] }

// PitchRange is an inclusive MIDI pitch filter
type PitchRange struct {
	StartPitch int
	EndPitch   int
}

// Contains reports whether pitch lies in the range, bounds included
func (r PitchRange) Contains(pitch int) bool {
	return pitch >= r.StartPitch && pitch <= r.EndPitch
}

// BarBeatRange is an explicit bar|beat-bar|beat selector, 1-based and inclusive
type BarBeatRange struct {
	StartBar  int
	StartBeat float64
	EndBar    int
	EndBeat   float64
}

// Assignment is one statement of a transform program
type Assignment struct {
	Parameter  Parameter
	Operator   Operator
	PitchRange *PitchRange
	TimeRange  *BarBeatRange
	Expression Expr
	Line       int
}

// Program is a parsed transform. Statement order matters.
type Program struct {
	Source      string
	Assignments []Assignment
}

// Expr is an expression node. The set of implementations is closed.
type Expr interface {
	exprNode()
	String() string
}

// NumberLiteral is a constant
type NumberLiteral struct {
	Value float64
}

// PeriodLiteral is a bars:beats duration written with a t suffix (2:0t, 1.5t)
type PeriodLiteral struct {
	Bars  float64
	Beats float64
}

// Variable references namespace.name, e.g. note.velocity
type Variable struct {
	Namespace string
	Name      string
}

// BinaryKind is an arithmetic operator
type BinaryKind string

const (
	BinaryAdd      BinaryKind = "+"
	BinarySubtract BinaryKind = "-"
	BinaryMultiply BinaryKind = "*"
	BinaryDivide   BinaryKind = "/"
	BinaryModulo   BinaryKind = "%"
)

// BinaryOp applies Kind to Left and Right
type BinaryOp struct {
	Kind  BinaryKind
	Left  Expr
	Right Expr
}

// FunctionCall invokes a built-in function. Sync ties waveforms to the arrangement timeline.
type FunctionCall struct {
	Name string
	Args []Expr
	Sync bool
}

func (NumberLiteral) exprNode() {}
func (PeriodLiteral) exprNode() {}
func (Variable) exprNode()      {}
func (BinaryOp) exprNode()      {}
func (FunctionCall) exprNode()  {}

func (n NumberLiteral) String() string { return fmt.Sprintf("%g", n.Value) }

func (p PeriodLiteral) String() string {
	if p.Bars == 0 {
		return fmt.Sprintf("%gt", p.Beats)
	}
	return fmt.Sprintf("%g:%gt", p.Bars, p.Beats)
}

func (v Variable) String() string { return v.Namespace + "." + v.Name }

func (b BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Kind, b.Right)
}

func (f FunctionCall) String() string {
	s := f.Name + "("
	for i, arg := range f.Args {
		if i > 0 {
			s += ", "
		}
		s += arg.String()
	}
	if f.Sync {
		if len(f.Args) > 0 {
			s += ", "
		}
		s += "sync"
	}
	return s + ")"
}
