package transform

import "fmt"

// SyntaxError reports malformed program text
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("transform syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("transform syntax error: %s", e.Message)
}

// EvaluationError reports a failure evaluating one expression for one target
type EvaluationError struct {
	Message string
}

func (e *EvaluationError) Error() string {
	return e.Message
}

func evalErrorf(format string, args ...any) error {
	return &EvaluationError{Message: fmt.Sprintf(format, args...)}
}
