package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/Conceptual-Machines/magda-transforms-go/music"
)

var transformLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Newline", Pattern: `[\n;]+`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Period", Pattern: `\d+(?:\.\d+)?(?::\d+(?:\.\d+)?)?t\b`},
	{Name: "NoteName", Pattern: `[A-G][#b]?-?\d+`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?|\.\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `\+=|[-+*/%(),:|.=]`},
})

var transformParser = participle.MustBuild[programAST](
	participle.Lexer(transformLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// ---------- Grammar ----------

type programAST struct {
	Statements []*statementAST `parser:"Newline* ( @@ ( Newline+ | EOF ) )*"`
}

type statementAST struct {
	Pos       lexer.Position
	Pitch     *pitchRangeAST `parser:"@@?"`
	Time      *timeRangeAST  `parser:"@@?"`
	Colon     bool           `parser:"@\":\"?"`
	Parameter string         `parser:"@Ident"`
	Operator  string         `parser:"@( \"+=\" | \"=\" )"`
	Value     *exprAST       `parser:"@@"`
}

type pitchRangeAST struct {
	Start string `parser:"@NoteName"`
	End   string `parser:"( \"-\" @NoteName )?"`
}

type timeRangeAST struct {
	StartBar  float64 `parser:"@Number \"|\""`
	StartBeat float64 `parser:"@Number \"-\""`
	EndBar    float64 `parser:"@Number \"|\""`
	EndBeat   float64 `parser:"@Number"`
}

type exprAST struct {
	Left  *termAST     `parser:"@@"`
	Right []*opTermAST `parser:"@@*"`
}

type opTermAST struct {
	Operator string   `parser:"@( \"+\" | \"-\" )"`
	Term     *termAST `parser:"@@"`
}

type termAST struct {
	Left  *unaryAST      `parser:"@@"`
	Right []*opFactorAST `parser:"@@*"`
}

type opFactorAST struct {
	Operator string    `parser:"@( \"*\" | \"/\" | \"%\" )"`
	Factor   *unaryAST `parser:"@@"`
}

type unaryAST struct {
	Negate  bool        `parser:"@\"-\"?"`
	Primary *primaryAST `parser:"@@"`
}

type primaryAST struct {
	Period *string  `parser:"  @Period"`
	Number *float64 `parser:"| @Number"`
	Ref    *refAST  `parser:"| @@"`
	Group  *exprAST `parser:"| \"(\" @@ \")\""`
}

type refAST struct {
	Name   string     `parser:"@Ident"`
	Suffix *suffixAST `parser:"@@"`
}

type suffixAST struct {
	Member *string  `parser:"  \".\" @Ident"`
	Call   *callAST `parser:"| @@"`
}

type callAST struct {
	Open bool      `parser:"@\"(\""`
	Args []*argAST `parser:"( @@ ( \",\" @@ )* )? \")\""`
}

type argAST struct {
	Sync bool     `parser:"  @\"sync\""`
	Expr *exprAST `parser:"| @@"`
}

var knownNamespaces = map[string]bool{
	"note":  true,
	"clip":  true,
	"bar":   true,
	"audio": true,
	"scale": true,
}

// Parse turns program text into an ordered assignment list.
// Blank or comment-only text yields an empty program.
func Parse(text string) (*Program, error) {
	program := &Program{Source: text}
	if strings.TrimSpace(text) == "" {
		return program, nil
	}

	ast, err := transformParser.ParseString("", text)
	if err != nil {
		return nil, toSyntaxError(err)
	}

	for _, stmt := range ast.Statements {
		assignment, err := buildAssignment(stmt)
		if err != nil {
			return nil, err
		}
		program.Assignments = append(program.Assignments, assignment)
	}
	return program, nil
}

// MustParse is Parse for programs known to be valid, such as test fixtures
func MustParse(text string) *Program {
	program, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return program
}

func toSyntaxError(err error) *SyntaxError {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &SyntaxError{Line: pos.Line, Column: pos.Column, Message: perr.Message()}
	}
	return &SyntaxError{Message: err.Error()}
}

func syntaxErrorAt(pos lexer.Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: pos.Line, Column: pos.Column, Message: fmt.Sprintf(format, args...)}
}

func buildAssignment(stmt *statementAST) (Assignment, error) {
	hasSelector := stmt.Pitch != nil || stmt.Time != nil
	if hasSelector && !stmt.Colon {
		return Assignment{}, syntaxErrorAt(stmt.Pos, "selector must be followed by ':'")
	}
	if !hasSelector && stmt.Colon {
		return Assignment{}, syntaxErrorAt(stmt.Pos, "':' without a pitch or time selector")
	}

	param := Parameter(stmt.Parameter)
	if !param.IsMIDI() && !param.IsAudio() {
		return Assignment{}, syntaxErrorAt(stmt.Pos, "unknown parameter %q", stmt.Parameter)
	}

	assignment := Assignment{
		Parameter: param,
		Operator:  OperatorSet,
		Line:      stmt.Pos.Line,
	}
	if stmt.Operator == "+=" {
		assignment.Operator = OperatorAdd
	}

	if stmt.Pitch != nil {
		pitchRange, err := buildPitchRange(stmt.Pitch)
		if err != nil {
			return Assignment{}, syntaxErrorAt(stmt.Pos, "%v", err)
		}
		assignment.PitchRange = pitchRange
	}

	if stmt.Time != nil {
		timeRange, err := buildTimeRange(stmt.Time)
		if err != nil {
			return Assignment{}, syntaxErrorAt(stmt.Pos, "%v", err)
		}
		assignment.TimeRange = timeRange
	}

	expr, err := buildExpr(stmt.Value, stmt.Pos)
	if err != nil {
		return Assignment{}, err
	}
	assignment.Expression = expr

	return assignment, nil
}

func buildPitchRange(ast *pitchRangeAST) (*PitchRange, error) {
	start, err := music.NoteNameToMIDI(ast.Start)
	if err != nil {
		return nil, err
	}
	end := start
	if ast.End != "" {
		end, err = music.NoteNameToMIDI(ast.End)
		if err != nil {
			return nil, err
		}
	}
	if end < start {
		return nil, fmt.Errorf("pitch range %s-%s is reversed", ast.Start, ast.End)
	}
	return &PitchRange{StartPitch: start, EndPitch: end}, nil
}

func buildTimeRange(ast *timeRangeAST) (*BarBeatRange, error) {
	for _, bar := range []float64{ast.StartBar, ast.EndBar} {
		if bar < 1 || bar != float64(int(bar)) {
			return nil, fmt.Errorf("bar numbers must be whole numbers >= 1, got %g", bar)
		}
	}
	if ast.StartBeat < 1 || ast.EndBeat < 1 {
		return nil, fmt.Errorf("beat numbers start at 1")
	}
	return &BarBeatRange{
		StartBar:  int(ast.StartBar),
		StartBeat: ast.StartBeat,
		EndBar:    int(ast.EndBar),
		EndBeat:   ast.EndBeat,
	}, nil
}

func buildExpr(ast *exprAST, pos lexer.Position) (Expr, error) {
	left, err := buildTerm(ast.Left, pos)
	if err != nil {
		return nil, err
	}
	for _, op := range ast.Right {
		right, err := buildTerm(op.Term, pos)
		if err != nil {
			return nil, err
		}
		kind := BinaryAdd
		if op.Operator == "-" {
			kind = BinarySubtract
		}
		left = BinaryOp{Kind: kind, Left: left, Right: right}
	}
	return left, nil
}

func buildTerm(ast *termAST, pos lexer.Position) (Expr, error) {
	left, err := buildUnary(ast.Left, pos)
	if err != nil {
		return nil, err
	}
	for _, op := range ast.Right {
		right, err := buildUnary(op.Factor, pos)
		if err != nil {
			return nil, err
		}
		left = BinaryOp{Kind: BinaryKind(op.Operator), Left: left, Right: right}
	}
	return left, nil
}

func buildUnary(ast *unaryAST, pos lexer.Position) (Expr, error) {
	expr, err := buildPrimary(ast.Primary, pos)
	if err != nil {
		return nil, err
	}
	if !ast.Negate {
		return expr, nil
	}
	if lit, ok := expr.(NumberLiteral); ok {
		return NumberLiteral{Value: -lit.Value}, nil
	}
	return BinaryOp{Kind: BinarySubtract, Left: NumberLiteral{Value: 0}, Right: expr}, nil
}

func buildPrimary(ast *primaryAST, pos lexer.Position) (Expr, error) {
	switch {
	case ast.Period != nil:
		return buildPeriod(*ast.Period, pos)
	case ast.Number != nil:
		return NumberLiteral{Value: *ast.Number}, nil
	case ast.Group != nil:
		return buildExpr(ast.Group, pos)
	case ast.Ref != nil:
		return buildRef(ast.Ref, pos)
	}
	return nil, syntaxErrorAt(pos, "empty expression")
}

func buildPeriod(literal string, pos lexer.Position) (Expr, error) {
	body := strings.TrimSuffix(literal, "t")
	barsPart, beatsPart, hasBars := strings.Cut(body, ":")
	if !hasBars {
		beats, err := strconv.ParseFloat(barsPart, 64)
		if err != nil {
			return nil, syntaxErrorAt(pos, "invalid period %q", literal)
		}
		return PeriodLiteral{Beats: beats}, nil
	}

	bars, err := strconv.ParseFloat(barsPart, 64)
	if err != nil {
		return nil, syntaxErrorAt(pos, "invalid period %q", literal)
	}
	beats, err := strconv.ParseFloat(beatsPart, 64)
	if err != nil {
		return nil, syntaxErrorAt(pos, "invalid period %q", literal)
	}
	return PeriodLiteral{Bars: bars, Beats: beats}, nil
}

func buildRef(ast *refAST, pos lexer.Position) (Expr, error) {
	if ast.Suffix == nil {
		return nil, syntaxErrorAt(pos, "bare identifier %q", ast.Name)
	}

	if ast.Suffix.Member != nil {
		if !knownNamespaces[ast.Name] {
			return nil, syntaxErrorAt(pos, "unknown variable namespace %q", ast.Name)
		}
		return Variable{Namespace: ast.Name, Name: *ast.Suffix.Member}, nil
	}

	call := FunctionCall{Name: ast.Name}
	if ast.Suffix.Call != nil {
		for _, arg := range ast.Suffix.Call.Args {
			if arg.Sync {
				call.Sync = true
				continue
			}
			expr, err := buildExpr(arg.Expr, pos)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, expr)
		}
	}
	return call, nil
}
