// ABOUTME: OpenAI API client implementing the llm.Client interface.
// ABOUTME: Maps contexts and function calls onto chat completions with tool calling.
package llm

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4.1"

// OpenAIClient implements Client for the OpenAI API.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI API client.
func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// convertOpenAIRequest converts our Request to OpenAI's ChatCompletionNewParams.
func convertOpenAIRequest(req *Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	messages := []openai.ChatCompletionMessageParamUnion{}

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleUser:
			messages = append(messages, convertUserMessage(msg)...)
		case RoleAssistant:
			messages = append(messages, convertAssistantMessage(msg))
		}
	}
	params.Messages = messages

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters:  openai.FunctionParameters(tool.InputSchema),
				},
			})
		}
		params.Tools = tools
	}

	return params
}

// convertUserMessage converts a user message. Every tool_result block becomes
// its own tool message so each call id gets exactly one answer.
func convertUserMessage(msg Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, block := range msg.Blocks {
		if block.Type == ContentTypeToolResult {
			out = append(out, openai.ToolMessage(block.Text, block.ToolUseID))
		}
	}
	if len(out) > 0 {
		return out
	}

	if msg.Content != "" {
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(msg.Content)}
	}
	for _, block := range msg.Blocks {
		if block.Type == ContentTypeText {
			return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(block.Text)}
		}
	}
	return []openai.ChatCompletionMessageParamUnion{openai.UserMessage("")}
}

// convertAssistantMessage converts an assistant message, including any
// function calls it requested.
func convertAssistantMessage(msg Message) openai.ChatCompletionMessageParamUnion {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	textContent := msg.Content

	for _, block := range msg.Blocks {
		switch block.Type {
		case ContentTypeText:
			textContent += block.Text
		case ContentTypeToolUse:
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   block.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      block.Name,
					Arguments: rawArguments(block),
				},
			})
		}
	}

	if len(toolCalls) > 0 {
		assistant := openai.ChatCompletionAssistantMessageParam{
			Role:      "assistant",
			ToolCalls: toolCalls,
		}
		if textContent != "" {
			assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: openai.String(textContent),
			}
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
	}

	return openai.AssistantMessage(textContent)
}

// rawArguments returns the serialized arguments of a tool_use block, falling
// back to encoding Input when the model text was not kept.
func rawArguments(block ContentBlock) string {
	if block.Arguments != "" {
		return block.Arguments
	}
	if block.Input == nil {
		return "{}"
	}
	data, err := json.Marshal(block.Input)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// decodeInput decodes serialized arguments into Input on a best-effort basis.
// Strict validation happens later in the router.
func decodeInput(arguments string) map[string]any {
	var input map[string]any
	if err := json.Unmarshal([]byte(arguments), &input); err != nil {
		return nil
	}
	return input
}

// convertOpenAIResponse converts OpenAI's ChatCompletion to our Response.
func convertOpenAIResponse(resp *openai.ChatCompletion) *Response {
	result := &Response{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}

	if len(resp.Choices) == 0 {
		return result
	}

	choice := resp.Choices[0]

	switch choice.FinishReason {
	case "tool_calls":
		result.StopReason = StopReasonToolUse
	case "length":
		result.StopReason = StopReasonMaxTokens
	default:
		result.StopReason = StopReasonEndTurn
	}

	if choice.Message.Content != "" {
		result.Content = append(result.Content, ContentBlock{
			Type: ContentTypeText,
			Text: choice.Message.Content,
		})
	}

	for _, tc := range choice.Message.ToolCalls {
		result.Content = append(result.Content, ContentBlock{
			Type:      ContentTypeToolUse,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
			Input:     decodeInput(tc.Function.Arguments),
		})
	}

	return result
}

// createChatCompletion is shared by every OpenAI-compatible backend.
func createChatCompletion(ctx context.Context, client openai.Client, defaultModel string, req *Request) (*Response, error) {
	if req.Model == "" {
		req.Model = defaultModel
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	resp, err := client.Chat.Completions.New(ctx, convertOpenAIRequest(req))
	if err != nil {
		return nil, err
	}
	return convertOpenAIResponse(resp), nil
}

// CreateMessage sends a message and returns the complete response.
func (o *OpenAIClient) CreateMessage(ctx context.Context, req *Request) (*Response, error) {
	return createChatCompletion(ctx, o.client, o.model, req)
}

// Compile-time interface assertion.
var _ Client = (*OpenAIClient)(nil)
