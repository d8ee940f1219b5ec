package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-transforms-go/config"
	"github.com/Conceptual-Machines/magda-transforms-go/llm"
	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/prompt"
)

// scriptedProvider returns its outputs in order and records every request
type scriptedProvider struct {
	outputs  []string
	err      error
	requests []*llm.GenerationRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(_ context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	p.requests = append(p.requests, request)
	if p.err != nil {
		return nil, p.err
	}
	out := p.outputs[0]
	p.outputs = p.outputs[1:]
	return &llm.GenerationResponse{RawOutput: out, Usage: llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}, nil
}

func TestAgent_Generate(t *testing.T) {
	provider := &scriptedProvider{outputs: []string{"```\nvelocity = ramp(20, 100)\n```"}}
	agent := NewAgentWithProvider(provider)

	result, err := agent.Generate(context.Background(), "gpt-5.1", "fade in", &GenerateOptions{
		Clip: &prompt.ClipInfo{TimeSignature: "4/4", NoteCount: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, "velocity = ramp(20, 100)", result.Program)
	assert.Equal(t, 1, result.Assignments)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, int64(15), result.Usage.TotalTokens)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, "gpt-5.1", req.Model)
	require.NotNil(t, req.CFGGrammar)
	assert.Equal(t, llm.TransformToolName, req.CFGGrammar.ToolName)
	assert.Contains(t, req.SystemPrompt, "## Language Reference")
	assert.Contains(t, req.InputArray[0]["content"], "Request: fade in")
}

func TestAgent_Generate_RetriesOnSyntaxError(t *testing.T) {
	provider := &scriptedProvider{outputs: []string{"velocity == 3", "velocity = 3"}}
	agent := NewAgentWithProvider(provider)

	result, err := agent.Generate(context.Background(), "gpt-5.1", "set velocity to 3", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, int64(30), result.Usage.TotalTokens)
	require.Len(t, provider.requests, 2)
	retry := provider.requests[1].InputArray
	require.Len(t, retry, 2)
	assert.Equal(t, "developer", retry[1]["role"])
	assert.Contains(t, retry[1]["content"], "velocity == 3")
}

func TestAgent_Generate_GivesUp(t *testing.T) {
	provider := &scriptedProvider{outputs: []string{"louder please", "// nothing"}}
	agent := NewAgentWithProvider(provider)

	_, err := agent.Generate(context.Background(), "gpt-5.1", "louder", nil)
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.Len(t, provider.requests, 2)
}

func TestAgent_Generate_ProviderError(t *testing.T) {
	agent := NewAgentWithProvider(&scriptedProvider{err: errors.New("rate limited")})

	_, err := agent.Generate(context.Background(), "gpt-5.1", "louder", nil)
	assert.ErrorContains(t, err, "rate limited")
}

func TestAgent_Apply(t *testing.T) {
	agent := NewAgentWithProvider(&scriptedProvider{outputs: []string{"C3: velocity += 10"}})

	result, err := agent.Generate(context.Background(), "gpt-5.1", "louder C3", nil)
	require.NoError(t, err)

	notes := []models.NoteEvent{
		{Pitch: 60, StartTime: 0, Duration: 1, Velocity: 100},
		{Pitch: 62, StartTime: 1, Duration: 1, Velocity: 100},
	}
	out, report := agent.Apply(context.Background(), result, notes, models.CommonTime, nil)
	require.Len(t, out, 2)
	assert.Equal(t, 110.0, out[0].Velocity)
	assert.Equal(t, 100.0, out[1].Velocity)
	assert.Equal(t, 1, report.Applied)
}

func TestAgent_ApplyAudio(t *testing.T) {
	agent := NewAgentWithProvider(&scriptedProvider{outputs: []string{"gain += -3"}})

	result, err := agent.Generate(context.Background(), "gpt-5.1", "quieter", nil)
	require.NoError(t, err)

	out, _ := agent.ApplyAudio(context.Background(), result, models.AudioProperties{Gain: -1}, nil)
	require.NotNil(t, out.Gain)
	assert.Equal(t, -4.0, *out.Gain)
}

func TestNewAgent_MissingKey(t *testing.T) {
	_, err := NewAgent(context.Background(), &config.Config{Model: "gpt-5.1"})
	assert.ErrorContains(t, err, "API key not configured")
}
