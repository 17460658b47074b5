// ABOUTME: Gemini API client implementing the llm.Client interface.
// ABOUTME: Maps contexts onto GenerateContent with function declarations and responses.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient implements Client for the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini API client. A non-empty baseURL points
// the client at a proxy or compatible endpoint.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	if model == "" {
		model = DefaultGeminiModel
	}

	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// convertGeminiRequest converts our Request to Gemini's content and config.
func convertGeminiRequest(req *Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}

	if req.MaxTokens > 0 && req.MaxTokens <= math.MaxInt32 {
		config.MaxOutputTokens = int32(req.MaxTokens) //nolint:gosec // bounds checked above
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	if len(req.Tools) > 0 {
		funcDecls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			funcDecl := &genai.FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
			}
			if tool.InputSchema != nil {
				funcDecl.ParametersJsonSchema = tool.InputSchema
			}
			funcDecls = append(funcDecls, funcDecl)
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: funcDecls}}
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if content := convertMessage(msg); content != nil {
			contents = append(contents, content)
		}
	}

	return contents, config
}

// convertMessage converts a Message to Gemini Content.
func convertMessage(msg Message) *genai.Content {
	role := string(genai.RoleUser)
	if msg.Role == RoleAssistant {
		role = string(genai.RoleModel)
	}

	var parts []*genai.Part
	if msg.Content != "" {
		parts = append(parts, &genai.Part{Text: msg.Content})
	}

	for _, block := range msg.Blocks {
		switch block.Type {
		case ContentTypeText:
			parts = append(parts, &genai.Part{Text: block.Text})
		case ContentTypeToolUse:
			input := block.Input
			if input == nil {
				input = decodeInput(block.Arguments)
			}
			parts = append(parts, genai.NewPartFromFunctionCall(block.Name, input))
		case ContentTypeToolResult:
			response := map[string]any{"output": block.Text}
			if block.IsError {
				response = map[string]any{"error": block.Text}
			}
			parts = append(parts, genai.NewPartFromFunctionResponse(block.Name, response))
		}
	}

	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Role: role, Parts: parts}
}

// convertGeminiResponse converts Gemini's GenerateContentResponse to our Response.
// Gemini frequently omits function call ids, so one is generated when missing.
func convertGeminiResponse(resp *genai.GenerateContentResponse, model string) *Response {
	result := &Response{Model: model, ID: resp.ResponseID}

	if resp.UsageMetadata != nil {
		result.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	if len(resp.Candidates) == 0 {
		return result
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case genai.FinishReasonMaxTokens:
		result.StopReason = StopReasonMaxTokens
	default:
		result.StopReason = StopReasonEndTurn
	}

	if candidate.Content == nil {
		return result
	}
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			result.Content = append(result.Content, ContentBlock{
				Type: ContentTypeText,
				Text: part.Text,
			})
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			arguments, err := json.Marshal(part.FunctionCall.Args)
			if err != nil || part.FunctionCall.Args == nil {
				arguments = []byte("{}")
			}
			result.Content = append(result.Content, ContentBlock{
				Type:      ContentTypeToolUse,
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: string(arguments),
				Input:     part.FunctionCall.Args,
			})
			result.StopReason = StopReasonToolUse
		}
	}

	return result
}

// CreateMessage sends a message and returns the complete response.
func (g *GeminiClient) CreateMessage(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	contents, config := convertGeminiRequest(req)
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}

	return convertGeminiResponse(resp, model), nil
}

// Compile-time interface assertion.
var _ Client = (*GeminiClient)(nil)
