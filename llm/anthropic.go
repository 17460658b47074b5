// ABOUTME: Anthropic API client implementing the llm.Client interface.
// ABOUTME: Maps contexts, tool_use and tool_result blocks onto the Messages API.
package llm

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicClient implements Client for the Anthropic API.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates a new Anthropic API client.
// A non-empty baseURL points the client at a proxy or compatible endpoint.
func NewAnthropicClient(apiKey, model, baseURL string) *AnthropicClient {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// convertRequest converts our Request to Anthropic's MessageNewParams.
func convertRequest(req *Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var content []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		for _, block := range msg.Blocks {
			switch block.Type {
			case ContentTypeText:
				content = append(content, anthropic.NewTextBlock(block.Text))
			case ContentTypeToolUse:
				content = append(content, anthropic.NewToolUseBlock(block.ID, toolUseInput(block), block.Name))
			case ContentTypeToolResult:
				content = append(content, anthropic.NewToolResultBlock(block.ToolUseID, block.Text, block.IsError))
			}
		}
		if len(content) == 0 {
			continue
		}
		messages = append(messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(msg.Role),
			Content: content,
		})
	}
	params.Messages = messages

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			toolParam := anthropic.ToolParam{
				Name:        tool.Name,
				Description: param.NewOpt(tool.Description),
				InputSchema: convertInputSchema(tool.InputSchema),
			}
			tools = append(tools, anthropic.ToolUnionParam{OfTool: &toolParam})
		}
		params.Tools = tools
	}

	return params
}

// toolUseInput replays the arguments of an earlier tool_use block.
func toolUseInput(block ContentBlock) any {
	if block.Input != nil {
		return block.Input
	}
	if block.Arguments != "" && json.Valid([]byte(block.Arguments)) {
		return json.RawMessage(block.Arguments)
	}
	return map[string]any{}
}

// convertInputSchema extracts properties and required fields from a JSON schema.
func convertInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	inputSchema := anthropic.ToolInputSchemaParam{}
	if props, ok := schema["properties"]; ok {
		inputSchema.Properties = props
	}
	switch required := schema["required"].(type) {
	case []string:
		inputSchema.Required = required
	case []any:
		// Handle []any (common from JSON unmarshal)
		names := make([]string, 0, len(required))
		for _, r := range required {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		inputSchema.Required = names
	}
	return inputSchema
}

// convertResponse converts Anthropic's Message to our Response.
func convertResponse(msg *anthropic.Message) *Response {
	resp := &Response{
		ID:         msg.ID,
		Model:      string(msg.Model),
		StopReason: StopReason(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Content = append(resp.Content, ContentBlock{
				Type: ContentTypeText,
				Text: block.Text,
			})
		case "tool_use":
			arguments := string(block.Input)
			resp.Content = append(resp.Content, ContentBlock{
				Type:      ContentTypeToolUse,
				ID:        block.ID,
				Name:      block.Name,
				Arguments: arguments,
				Input:     decodeInput(arguments),
			})
		}
	}

	return resp
}

// CreateMessage sends a message and returns the complete response.
func (a *AnthropicClient) CreateMessage(ctx context.Context, req *Request) (*Response, error) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	msg, err := a.client.Messages.New(ctx, convertRequest(req))
	if err != nil {
		return nil, err
	}

	return convertResponse(msg), nil
}

// Compile-time interface assertion.
var _ Client = (*AnthropicClient)(nil)
