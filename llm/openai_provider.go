package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	developerRole = "developer"

	// Reasoning effort levels
	reasoningNone    = "none"
	reasoningMinimal = "minimal"
	reasoningLow     = "low"
	reasoningMedium  = "medium"
	reasoningHigh    = "high"
	reasoningMin     = "min"
	reasoningMed     = "med"

	customToolCallType = "custom_tool_call"
	providerNameOpenAI = "openai"
	responsesURL       = "https://api.openai.com/v1/responses"

	maxPreviewChars = 200
)

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client     *openai.Client
	apiKey     string // for raw requests carrying a CFG tool
	httpClient *http.Client
	baseURL    string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:     &client,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		baseURL:    responsesURL,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate implements non-streaming generation using OpenAI's Responses API.
// Requests with a CFG grammar go out as raw JSON since the SDK has no typed custom tool param.
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("cfg_enabled", fmt.Sprintf("%t", request.CFGGrammar != nil))

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()

	var resp *responses.Response
	var err error
	if request.CFGGrammar != nil {
		resp, err = p.generateWithCFG(ctx, params, request.CFGGrammar)
	} else {
		resp, err = p.client.Responses.New(ctx, params)
	}

	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	result, err := p.processResponse(resp, request.CFGGrammar)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ GENERATION COMPLETED in %v", time.Since(startTime))
	return result, nil
}

// buildRequestParams converts GenerationRequest to OpenAI-specific ResponseNewParams
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{}

	for _, item := range request.InputArray {
		role, hasRole := item["role"].(string)
		content, hasContent := item["content"].(string)

		if !hasRole || !hasContent {
			log.Printf("⚠️  Skipping invalid input item (missing role or content): %v", item)
			continue
		}

		roleEnum := responses.EasyInputMessageRoleUser
		if role == developerRole {
			roleEnum = responses.EasyInputMessageRoleDeveloper
		}

		inputItems = append(inputItems,
			responses.ResponseInputItemParamOfMessage(content, roleEnum),
		)
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions: openai.String(request.SystemPrompt),
		Reasoning: shared.ReasoningParam{
			Effort: reasoningEffort(request.ReasoningMode),
		},
	}
	if request.CFGGrammar != nil {
		params.ParallelToolCalls = openai.Bool(false)
	}

	return params
}

// reasoningEffort maps the loose mode names used in configs onto the SDK enum
func reasoningEffort(mode string) shared.ReasoningEffort {
	switch mode {
	case reasoningNone:
		return shared.ReasoningEffort("none")
	case reasoningMinimal, reasoningMin, reasoningLow:
		return responses.ReasoningEffortLow
	case reasoningMedium, reasoningMed:
		return responses.ReasoningEffortMedium
	case reasoningHigh:
		return responses.ReasoningEffortHigh
	default:
		return responses.ReasoningEffortLow
	}
}

// buildCFGTool builds the custom tool payload that constrains output to a grammar
func buildCFGTool(cfg *CFGConfig) map[string]any {
	syntax := cfg.Syntax
	if syntax == "" {
		syntax = "lark"
	}
	return map[string]any{
		"type":        "custom",
		"name":        cfg.ToolName,
		"description": cfg.Description,
		"format": map[string]any{
			"type":       "grammar",
			"syntax":     syntax,
			"definition": cleanGrammar(cfg.Grammar),
		},
	}
}

// cleanGrammar drops comment lines and blank lines, which the CFG endpoint rejects
func cleanGrammar(grammar string) string {
	lines := strings.Split(grammar, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return strings.Join(kept, "\n")
}

// generateWithCFG marshals params, attaches the CFG tool and posts the raw request
func (p *OpenAIProvider) generateWithCFG(
	ctx context.Context, params responses.ResponseNewParams, cfg *CFGConfig,
) (*responses.Response, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	var paramsMap map[string]any
	if err := json.Unmarshal(paramsJSON, &paramsMap); err != nil {
		return nil, fmt.Errorf("failed to prepare request: %w", err)
	}

	paramsMap["tools"] = []any{buildCFGTool(cfg)}
	paramsMap["text"] = map[string]any{"format": map[string]any{"type": "text"}}
	log.Printf("🔧 CFG GRAMMAR CONFIGURED: %s (syntax: %s)", cfg.ToolName, cfg.Syntax)

	body, err := json.Marshal(paramsMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	log.Printf("📤 Making raw HTTP request (JSON size: %d bytes)", len(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			log.Printf("⚠️  Failed to close response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", httpResp.StatusCode, truncate(string(respBody), maxPreviewChars))
	}

	resp := &responses.Response{}
	if err := json.Unmarshal(respBody, resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp, nil
}

// processResponse converts an OpenAI Response to GenerationResponse.
// With a CFG tool configured, the program must come from the tool call.
func (p *OpenAIProvider) processResponse(resp *responses.Response, cfg *CFGConfig) (*GenerationResponse, error) {
	usage := Usage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	log.Printf("📊 USAGE: input=%d, output=%d, total=%d", usage.InputTokens, usage.OutputTokens, usage.TotalTokens)

	if cfg != nil {
		if code := extractCustomToolInput(resp); code != "" {
			log.Printf("🔧 Found CFG tool call input: %s", truncate(code, maxPreviewChars))
			return &GenerationResponse{RawOutput: code, Usage: usage}, nil
		}
		return nil, fmt.Errorf("CFG grammar was configured but the model did not call %s", cfg.ToolName)
	}

	text := StripCodeFences(resp.OutputText())
	if text == "" {
		return nil, fmt.Errorf("openai response did not include any output text")
	}
	return &GenerationResponse{RawOutput: text, Usage: usage}, nil
}

// extractCustomToolInput returns the input of the first custom tool call in the output
func extractCustomToolInput(resp *responses.Response) string {
	for _, item := range resp.Output {
		var itemMap map[string]any
		if json.Unmarshal([]byte(item.RawJSON()), &itemMap) != nil {
			continue
		}
		if itemMap["type"] != customToolCallType {
			continue
		}
		if input, ok := itemMap["input"].(string); ok && strings.TrimSpace(input) != "" {
			return input
		}
	}
	return ""
}

// StripCodeFences removes a surrounding markdown code block, if any
func StripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```")
	if newline := strings.Index(cleaned, "\n"); newline >= 0 {
		// drop the info string ("```text")
		cleaned = cleaned[newline+1:]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
