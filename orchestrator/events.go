// ABOUTME: Defines the event system for orchestrator - enables decoupled
// ABOUTME: communication between the turn loop and whoever is watching it.
package orchestrator

import (
	"sync"
	"time"

	"github.com/2389-research/mcphub/tool"
)

// EventType identifies the kind of orchestrator event.
type EventType string

const (
	EventText        EventType = "text"
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventToolDropped EventType = "tool_dropped"
	EventStateChange EventType = "state_change"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
)

// Event represents an orchestrator lifecycle event.
type Event struct {
	Type EventType

	// For EventText
	Text string

	// For EventToolCall, EventToolResult and EventToolDropped
	ToolID     string
	ToolName   string
	ToolParams map[string]any

	// For EventToolResult
	Result   *tool.Result
	Provider string
	Elapsed  time.Duration

	// For EventStateChange
	FromState State
	ToState   State

	// For EventError
	Error error

	// For EventComplete
	FinalText string
}

// NewTextEvent creates a text content event.
func NewTextEvent(text string) Event {
	return Event{Type: EventText, Text: text}
}

// NewToolCallEvent creates a tool call event.
func NewToolCallEvent(id, name string, params map[string]any) Event {
	return Event{Type: EventToolCall, ToolID: id, ToolName: name, ToolParams: params}
}

// NewToolResultEvent creates a tool result event for a call served by
// provider.
func NewToolResultEvent(id, provider string, result *tool.Result, elapsed time.Duration) Event {
	return Event{
		Type:     EventToolResult,
		ToolID:   id,
		ToolName: result.ToolName,
		Result:   result,
		Provider: provider,
		Elapsed:  elapsed,
	}
}

// NewToolDroppedEvent creates an event for a call naming no known tool.
func NewToolDroppedEvent(id, name string) Event {
	return Event{Type: EventToolDropped, ToolID: id, ToolName: name}
}

// NewStateChangeEvent creates a state transition event.
func NewStateChangeEvent(from, to State) Event {
	return Event{Type: EventStateChange, FromState: from, ToState: to}
}

// NewCompleteEvent creates a completion event.
func NewCompleteEvent(finalText string) Event {
	return Event{Type: EventComplete, FinalText: finalText}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) Event {
	return Event{Type: EventError, Error: err}
}

// DefaultEventBuffer is the per-subscriber channel capacity.
const DefaultEventBuffer = 100

// EventBus fans events out to subscribers.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	buffer      int
	closed      bool
}

// NewEventBus creates an EventBus whose subscriber channels hold buffer
// events. A non-positive buffer means DefaultEventBuffer.
func NewEventBus(buffer int) *EventBus {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &EventBus{buffer: buffer}
}

// Subscribe returns a channel that receives events. Subscribing to a closed
// bus yields a closed channel.
func (eb *EventBus) Subscribe() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	ch := make(chan Event, eb.buffer)
	if eb.closed {
		close(ch)
		return ch
	}
	eb.subscribers = append(eb.subscribers, ch)
	return ch
}

// Unsubscribe detaches ch and closes it. Unknown channels are ignored.
func (eb *EventBus) Unsubscribe(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Publish sends an event to all subscribers without blocking. A subscriber
// whose channel is full misses the event.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return
	}
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	for _, ch := range eb.subscribers {
		close(ch)
	}
}
