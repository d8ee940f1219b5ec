package transform

import (
	"context"
	"time"
)

// Preview is an assignment's evaluated value before clamping or application
type Preview struct {
	Operator Operator
	Value    float64
}

// Evaluate computes every assignment against a single context without touching any data.
// Later assignments to the same parameter replace earlier ones; failures are left out.
func (e *Engine) Evaluate(ctx context.Context, program *Program, evalCtx *EvalContext) (map[Parameter]Preview, *Report) {
	started := time.Now()
	report := &Report{}
	previews := make(map[Parameter]Preview)
	if program == nil || len(program.Assignments) == 0 {
		return previews, report
	}
	report.Assignments = len(program.Assignments)

	local := EvalContext{}
	if evalCtx != nil {
		local = *evalCtx
	}
	evalCtx = &local
	if !evalCtx.TimeSignature.Valid() {
		evalCtx.TimeSignature = normalizeTimeSignature(evalCtx.TimeSignature, report)
	}
	if evalCtx.Random == nil {
		evalCtx.Random = e.random
	}

	for _, assignment := range program.Assignments {
		value, err := Evaluate(assignment.Expression, evalCtx)
		if err != nil {
			report.Skipped++
			report.warn("%s (line %d) could not be evaluated: %v", assignment.Parameter, assignment.Line, err)
			continue
		}
		previews[assignment.Parameter] = Preview{Operator: assignment.Operator, Value: value}
		report.Applied++
	}

	e.record(ctx, "preview", 1, started, report)
	return previews, report
}
