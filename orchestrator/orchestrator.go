// ABOUTME: Implements the core Orchestrator - the turn loop that alternates model
// ABOUTME: calls with routed tool invocations until the model answers in plain text.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389-research/mcphub/catalog"
	"github.com/2389-research/mcphub/history"
	"github.com/2389-research/mcphub/llm"
	"github.com/2389-research/mcphub/tool"
)

// DefaultMaxRounds bounds the model calls of one turn.
const DefaultMaxRounds = 10

// Config holds orchestrator configuration.
type Config struct {
	// MaxRounds bounds the model calls of one turn.
	MaxRounds int

	SystemPrompt string
	Model        string
	MaxTokens    int

	// Parallel lets calls owned by different providers run concurrently
	// within a round. Calls on the same provider always run in order.
	Parallel bool

	// EventBuffer is the channel capacity of each subscriber.
	EventBuffer int

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRounds: DefaultMaxRounds,
		MaxTokens: llm.DefaultMaxTokens,
		Parallel:  true,
	}
}

// Orchestrator drives turns of one conversation.
type Orchestrator struct {
	client   llm.Client
	router   *tool.Router
	history  *history.Window
	tools    []llm.ToolDefinition
	config   Config
	logger   *slog.Logger
	state    *StateMachine
	eventBus *EventBus
	usage    *TokenUsage

	mu    sync.Mutex
	turns int
}

// New creates an Orchestrator. The tool definitions offered to the model are
// taken from the router's source once, at construction.
func New(client llm.Client, router *tool.Router, hist *history.Window, config Config) *Orchestrator {
	if client == nil {
		panic("mcphub: client must not be nil")
	}
	if router == nil {
		panic("mcphub: router must not be nil")
	}
	if hist == nil {
		panic("mcphub: history must not be nil")
	}
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultMaxRounds
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = llm.DefaultMaxTokens
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		client:   client,
		router:   router,
		history:  hist,
		tools:    catalog.Descriptors(router.Source().All()),
		config:   config,
		logger:   logger,
		state:    NewStateMachine(),
		eventBus: NewEventBus(config.EventBuffer),
		usage:    NewTokenUsage(),
	}
}

// Subscribe returns a channel for receiving events.
func (o *Orchestrator) Subscribe() <-chan Event {
	return o.eventBus.Subscribe()
}

// Unsubscribe detaches a channel returned by Subscribe and closes it.
func (o *Orchestrator) Unsubscribe(ch <-chan Event) {
	o.eventBus.Unsubscribe(ch)
}

// Close closes every subscriber channel.
func (o *Orchestrator) Close() {
	o.eventBus.Close()
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return o.state.Current()
}

// Usage returns the token usage accumulated over all turns.
func (o *Orchestrator) Usage() TokenUsage {
	return o.usage.Snapshot()
}

// History returns the conversation history the orchestrator reads and extends.
func (o *Orchestrator) History() *history.Window {
	return o.history
}

// RunTurn answers one user query. On success the query and the reply are
// appended to the history; on any error the history is left untouched.
//
// Turns are serialized: concurrent calls wait for each other.
func (o *Orchestrator) RunTurn(ctx context.Context, query string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.turns++
	logger := o.logger.With("turn", o.turns)
	o.state.Reset()

	user := llm.NewUserMessage(query)
	messages := append(o.history.Messages(), user)

	for round := 1; round <= o.config.MaxRounds; round++ {
		roundLogger := logger.With("round", round)
		if err := o.transition(StateModelCall); err != nil {
			return "", o.handleError(err)
		}

		roundLogger.Debug("calling model",
			"messages", len(messages), "approx_tokens", EstimateContextTokens(messages))
		resp, err := o.client.CreateMessage(ctx, o.buildRequest(messages))
		if err != nil {
			return "", o.handleError(&ModelCallError{Round: round, Err: err})
		}
		o.usage.Add(resp.Usage)

		texts, calls := o.processResponse(resp)

		if len(calls) == 0 {
			reply := strings.Join(texts, "")
			if err := o.transition(StateFinalText); err != nil {
				return "", o.handleError(err)
			}
			o.history.Append(user, llm.NewAssistantMessage(reply))
			o.eventBus.Publish(NewCompleteEvent(reply))
			o.transition(StateAwaitingInput) //nolint:errcheck // final_text always leads back to awaiting_input
			roundLogger.Debug("turn complete", "reply_bytes", len(reply))
			return reply, nil
		}

		if err := o.transition(StateToolCallsPending); err != nil {
			return "", o.handleError(err)
		}
		messages = o.runCalls(ctx, roundLogger, messages, resp.Content, calls)
	}

	return "", o.handleError(fmt.Errorf("%w: no final answer after %d rounds", ErrMaxRounds, o.config.MaxRounds))
}

func (o *Orchestrator) buildRequest(messages []llm.Message) *llm.Request {
	return &llm.Request{
		Messages:  messages,
		System:    o.config.SystemPrompt,
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Tools:     o.tools,
	}
}

// processResponse publishes the response's blocks in order and splits them
// into text segments and function-call requests.
func (o *Orchestrator) processResponse(resp *llm.Response) ([]string, []llm.ContentBlock) {
	var (
		texts []string
		calls []llm.ContentBlock
	)
	for _, block := range resp.Content {
		switch block.Type {
		case llm.ContentTypeText:
			texts = append(texts, block.Text)
			o.eventBus.Publish(NewTextEvent(block.Text))
		case llm.ContentTypeToolUse:
			calls = append(calls, block)
			o.eventBus.Publish(NewToolCallEvent(block.ID, block.Name, block.Input))
		}
	}
	return texts, calls
}

func (o *Orchestrator) transition(to State) error {
	from := o.state.Current()
	if err := o.state.Transition(to); err != nil {
		return err
	}
	o.eventBus.Publish(NewStateChangeEvent(from, to))
	return nil
}

func (o *Orchestrator) handleError(err error) error {
	o.transition(StateError) //nolint:errcheck // best-effort transition to error state
	o.eventBus.Publish(NewErrorEvent(err))
	o.transition(StateAwaitingInput) //nolint:errcheck // error always leads back to awaiting_input
	return err
}
