package llm

import (
	"context"
)

// Provider is a text generation backend
type Provider interface {
	Name() string
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}

// GenerationRequest is the provider-neutral input for one generation
type GenerationRequest struct {
	Model         string
	InputArray    []map[string]any // {"role": "user"|"developer", "content": "..."}
	SystemPrompt  string
	ReasoningMode string
	CFGGrammar    *CFGConfig
}

// CFGConfig constrains output to a Lark grammar through a custom tool.
// Providers without grammar support fall back to plain text.
type CFGConfig struct {
	ToolName    string
	Description string
	Grammar     string
	Syntax      string // "lark" or "regex"
}

// Usage counts tokens for a single generation
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// GenerationResponse carries the model's raw text output
type GenerationResponse struct {
	RawOutput string
	Usage     Usage
}
