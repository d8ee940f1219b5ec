package transform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Conceptual-Machines/magda-transforms-go/config"
	"github.com/Conceptual-Machines/magda-transforms-go/llm"
	"github.com/Conceptual-Machines/magda-transforms-go/metrics"
	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/prompt"
	"github.com/Conceptual-Machines/magda-transforms-go/transform"
	"github.com/getsentry/sentry-go"
)

const maxAttempts = 2

// Agent turns natural language requests into validated transform programs
type Agent struct {
	provider      llm.Provider
	systemPrompt  string
	promptBuilder *prompt.TransformPromptBuilder
	metrics       *metrics.SentryMetrics
	engine        *transform.Engine
}

// NewAgent creates an agent using the provider the config selects
func NewAgent(ctx context.Context, cfg *config.Config) (*Agent, error) {
	provider, err := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey).GetProvider(ctx, cfg.Model, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return NewAgentWithProvider(provider), nil
}

// NewAgentWithProvider creates an agent with a specific provider
func NewAgentWithProvider(provider llm.Provider) *Agent {
	promptBuilder := prompt.NewTransformPromptBuilder(llm.GetTransformDSLGrammar())
	m := metrics.NewSentryMetrics()

	log.Printf("🎛️  TRANSFORM AGENT INITIALIZED (provider: %s)", provider.Name())

	return &Agent{
		provider:      provider,
		systemPrompt:  promptBuilder.BuildPrompt(),
		promptBuilder: promptBuilder,
		metrics:       m,
		engine:        transform.NewEngine(transform.WithMetrics(m)),
	}
}

// GenerateOptions tunes a single Generate call
type GenerateOptions struct {
	ReasoningMode string
	Clip          *prompt.ClipInfo
}

// Result is a program the parser accepted
type Result struct {
	Program     string             `json:"program"`
	Assignments int                `json:"assignments"`
	Usage       llm.Usage          `json:"usage"`
	Attempts    int                `json:"attempts"`
	Parsed      *transform.Program `json:"-"`
}

// Generate asks the model for a program and validates it with the transform parser.
// A program that fails to parse is sent back once with the error for correction.
func (a *Agent) Generate(ctx context.Context, model, request string, opts *GenerateOptions) (*Result, error) {
	startTime := time.Now()
	log.Printf("🎛️  TRANSFORM GENERATION STARTED (Model: %s)", model)

	if opts == nil {
		opts = &GenerateOptions{}
	}

	transaction := sentry.StartTransaction(ctx, "transform_agent.generate")
	defer transaction.Finish()
	transaction.SetTag("model", model)
	transaction.SetTag("provider", a.provider.Name())
	ctx = transaction.Context()

	inputArray := []map[string]any{
		{"role": "user", "content": a.promptBuilder.BuildUserMessage(request, opts.Clip)},
	}

	var usage llm.Usage
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := a.provider.Generate(ctx, &llm.GenerationRequest{
			Model:         model,
			InputArray:    inputArray,
			SystemPrompt:  a.systemPrompt,
			ReasoningMode: opts.ReasoningMode,
			CFGGrammar: &llm.CFGConfig{
				ToolName:    llm.TransformToolName,
				Description: "Write a transform program: one `[selector:] parameter (= | +=) expression` per line.",
				Grammar:     llm.GetTransformDSLGrammar(),
				Syntax:      "lark",
			},
		})
		if err != nil {
			a.fail(ctx, transaction, startTime, "provider_error", err)
			return nil, fmt.Errorf("provider request failed: %w", err)
		}
		usage = addUsage(usage, resp.Usage)

		source := llm.StripCodeFences(resp.RawOutput)
		program, parseErr := transform.Parse(source)
		if parseErr == nil && len(program.Assignments) == 0 {
			parseErr = errors.New("program contains no assignments")
		}
		if parseErr == nil {
			a.metrics.RecordTokenUsage(ctx, model, int(usage.TotalTokens), int(usage.InputTokens), int(usage.OutputTokens))
			a.metrics.RecordGenerationDuration(ctx, time.Since(startTime), true)
			transaction.SetTag("success", "true")
			log.Printf("✅ TRANSFORM GENERATION COMPLETED in %v (%d assignments, %d attempt(s))",
				time.Since(startTime), len(program.Assignments), attempt)
			return &Result{
				Program:     source,
				Assignments: len(program.Assignments),
				Usage:       usage,
				Attempts:    attempt,
				Parsed:      program,
			}, nil
		}

		log.Printf("⚠️  Attempt %d produced an invalid program: %v", attempt, parseErr)
		lastErr = parseErr
		inputArray = append(inputArray,
			map[string]any{"role": "developer", "content": a.promptBuilder.BuildRetryMessage(source, parseErr)},
		)
	}

	a.fail(ctx, transaction, startTime, "invalid_program", lastErr)
	return nil, fmt.Errorf("model did not produce a valid program after %d attempts: %w", maxAttempts, lastErr)
}

// Apply runs a generated program over notes with the agent's engine
func (a *Agent) Apply(
	ctx context.Context, result *Result, notes []models.NoteEvent, ts models.TimeSignature, clip *models.ClipContext,
) ([]models.NoteEvent, *transform.Report) {
	return a.engine.ApplyNotes(ctx, notes, result.Parsed, ts, clip)
}

// ApplyAudio runs a generated program against an audio clip
func (a *Agent) ApplyAudio(
	ctx context.Context, result *Result, props models.AudioProperties, clip *models.ClipContext,
) (models.AudioResult, *transform.Report) {
	return a.engine.ApplyAudio(ctx, props, result.Parsed, clip)
}

func (a *Agent) fail(ctx context.Context, transaction *sentry.Span, startTime time.Time, errorType string, err error) {
	transaction.SetTag("success", "false")
	transaction.SetTag("error_type", errorType)
	sentry.CaptureException(err)
	a.metrics.RecordGenerationDuration(ctx, time.Since(startTime), false)
}

func addUsage(total, u llm.Usage) llm.Usage {
	return llm.Usage{
		InputTokens:  total.InputTokens + u.InputTokens,
		OutputTokens: total.OutputTokens + u.OutputTokens,
		TotalTokens:  total.TotalTokens + u.TotalTokens,
	}
}
