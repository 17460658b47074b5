// ABOUTME: Rough token estimation for the context sent on each round, logged so
// ABOUTME: operators can see how close a turn runs to the model's window.
package orchestrator

import "github.com/2389-research/mcphub/llm"

// ApproxBytesPerToken is the approximate number of bytes per token.
const ApproxBytesPerToken = 4

// EstimateTokens estimates the number of tokens in a text string.
func EstimateTokens(text string) int {
	return (len(text) + ApproxBytesPerToken - 1) / ApproxBytesPerToken
}

// EstimateContextTokens estimates the tokens of a whole context.
func EstimateContextTokens(msgs []llm.Message) int {
	var n int
	for _, msg := range msgs {
		n += len(msg.Content)
		for _, block := range msg.Blocks {
			n += len(block.Text) + len(block.ID) + len(block.Name) + len(block.Arguments) + len(block.ToolUseID)
		}
	}
	return (n + ApproxBytesPerToken - 1) / ApproxBytesPerToken
}
