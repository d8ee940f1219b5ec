package llm

// TransformToolName is the custom tool the model must call with its program
const TransformToolName = "transform_program"

// GetTransformDSLGrammar returns the Lark grammar for transform programs.
// It describes the same language transform.Parse accepts, minus comments.
func GetTransformDSLGrammar() string {
	return `
// Transform DSL - one assignment per line
// Examples:
//   velocity += 10
//   C3-E3 1|1-2|4: velocity = ramp(40, 110)
//   pitch = quant(note.pitch + seq(0, 3, 7), scale.mask)

start: statement ("\n" statement)*

statement: (selector ":" " "?)? PARAM " "? OP " "? expr

selector: pitch_range (" " time_range)?
        | time_range
pitch_range: NOTE ("-" NOTE)?
time_range: INT "|" NUMBER "-" INT "|" NUMBER

PARAM: "velocity" | "pitch" | "timing" | "duration" | "probability" | "deviation" | "gain" | "pitchShift"
OP: "=" | "+="

?expr: term ((" "? ADD_OP " "?) term)*
?term: unary ((" "? MUL_OP " "?) unary)*
?unary: "-"? primary
?primary: PERIOD
        | NUMBER
        | variable
        | call
        | "(" expr ")"

variable: NAMESPACE "." PROPERTY
call: FUNC "(" (arg ("," " "? arg)*)? ")"
arg: "sync" | expr

NAMESPACE: "note" | "clip" | "bar" | "audio" | "scale"
PROPERTY: /[a-zA-Z]+/
FUNC: "noise" | "round" | "floor" | "abs" | "min" | "max" | "ramp" | "curve"
    | "cos" | "tri" | "saw" | "square" | "rand" | "choose" | "seq" | "quant" | "step"

ADD_OP: "+" | "-"
MUL_OP: "*" | "/" | "%"

NOTE: /[A-G][#b]?-?[0-9]+/
PERIOD: /[0-9]+(\.[0-9]+)?(:[0-9]+(\.[0-9]+)?)?t/
INT: /[0-9]+/
NUMBER: /[0-9]+(\.[0-9]+)?/
`
}
