// ABOUTME: Runs one round's function calls - resolves each against the router,
// ABOUTME: fans out across providers, and appends the results in request order.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389-research/mcphub/llm"
	"github.com/2389-research/mcphub/tool"
)

type resolvedCall struct {
	block llm.ContentBlock
	owner string
}

// runCalls extends messages with the round's assistant message and the
// results of its resolvable calls.
//
// Calls naming no known tool are dropped: their tool_use blocks are removed
// from the assistant message and no result is produced for them.
func (o *Orchestrator) runCalls(ctx context.Context, logger *slog.Logger, messages []llm.Message, content []llm.ContentBlock, calls []llm.ContentBlock) []llm.Message {
	resolved := make([]resolvedCall, 0, len(calls))
	keep := make([]bool, len(calls))
	for i, call := range calls {
		t, err := o.router.Resolve(call.Name)
		if err != nil {
			logger.Debug("dropping call to unknown tool", "tool", call.Name, "call_id", call.ID)
			o.eventBus.Publish(NewToolDroppedEvent(call.ID, call.Name))
			continue
		}
		keep[i] = true
		resolved = append(resolved, resolvedCall{block: call, owner: t.Owner()})
	}

	if assistant, ok := assistantMessage(content, keep); ok {
		messages = append(messages, assistant)
	}
	if len(resolved) == 0 {
		return messages
	}

	results := o.invokeAll(ctx, logger, resolved)
	return append(messages, llm.NewToolResultMessage(results))
}

// assistantMessage rebuilds the model's message keeping text blocks and the
// tool_use blocks marked in keep. It reports false when nothing is left.
func assistantMessage(content []llm.ContentBlock, keep []bool) (llm.Message, bool) {
	blocks := make([]llm.ContentBlock, 0, len(content))
	callIndex := 0
	for _, block := range content {
		switch block.Type {
		case llm.ContentTypeToolUse:
			if keep[callIndex] {
				blocks = append(blocks, block)
			}
			callIndex++
		case llm.ContentTypeText:
			if block.Text != "" {
				blocks = append(blocks, block)
			}
		}
	}
	if len(blocks) == 0 {
		return llm.Message{}, false
	}
	return llm.Message{Role: llm.RoleAssistant, Blocks: blocks}, true
}

// invokeAll runs the calls and returns their result blocks indexed like
// calls. Calls sharing an owner run one after another in request order;
// distinct owners may run concurrently when Parallel is set.
func (o *Orchestrator) invokeAll(ctx context.Context, logger *slog.Logger, calls []resolvedCall) []llm.ContentBlock {
	results := make([]llm.ContentBlock, len(calls))

	if !o.config.Parallel {
		for i, call := range calls {
			results[i] = o.invokeOne(ctx, logger, call)
		}
		return results
	}

	var owners []string
	groups := make(map[string][]int)
	for i, call := range calls {
		if _, seen := groups[call.owner]; !seen {
			owners = append(owners, call.owner)
		}
		groups[call.owner] = append(groups[call.owner], i)
	}

	var g errgroup.Group
	for _, owner := range owners {
		indices := groups[owner]
		g.Go(func() error {
			for _, i := range indices {
				results[i] = o.invokeOne(ctx, logger, calls[i])
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // invokeOne never fails; failures become result text
	return results
}

// invokeOne runs a single call. Failures become error result text so the
// model can react to them.
func (o *Orchestrator) invokeOne(ctx context.Context, logger *slog.Logger, call resolvedCall) llm.ContentBlock {
	block := call.block
	start := time.Now()
	output, err := o.router.Invoke(ctx, tool.Call{ID: block.ID, Name: block.Name, Arguments: callArguments(block)})
	elapsed := time.Since(start)
	if err != nil {
		logger.Debug("tool call failed", "tool", block.Name, "call_id", block.ID, "provider", call.owner,
			"elapsed", elapsed, "error", err)
		text := "Error: " + err.Error()
		o.eventBus.Publish(NewToolResultEvent(block.ID, call.owner, tool.NewErrorResult(block.Name, text), elapsed))
		return llm.NewToolResultBlock(block.ID, block.Name, text, true)
	}

	logger.Debug("tool call succeeded", "tool", block.Name, "call_id", block.ID, "provider", call.owner, "elapsed", elapsed)
	o.eventBus.Publish(NewToolResultEvent(block.ID, call.owner, tool.NewResult(block.Name, output), elapsed))
	return llm.NewToolResultBlock(block.ID, block.Name, output, false)
}

// callArguments returns the serialized arguments of a call, falling back to
// the decoded Input when a backend supplied only that.
func callArguments(block llm.ContentBlock) string {
	if block.Arguments != "" || block.Input == nil {
		return block.Arguments
	}
	data, err := json.Marshal(block.Input)
	if err != nil {
		return ""
	}
	return string(data)
}
