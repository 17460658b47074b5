// ABOUTME: Implements Window - the bounded conversation history that seeds each
// ABOUTME: turn's context, evicting the oldest messages once capacity is reached.
package history

import (
	"sync"

	"github.com/2389-research/mcphub/llm"
)

// DefaultCapacity is the number of messages kept when none is configured:
// the last three user/assistant exchanges.
const DefaultCapacity = 6

// Window keeps the most recent messages of a conversation.
type Window struct {
	mu       sync.Mutex
	capacity int
	messages []llm.Message
}

// New creates an empty window. A non-positive capacity means DefaultCapacity.
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{capacity: capacity, messages: make([]llm.Message, 0, capacity+2)}
}

// Capacity returns the maximum number of messages kept.
func (w *Window) Capacity() int { return w.capacity }

// Append records one completed exchange, then evicts from the front until
// the window fits its capacity.
func (w *Window) Append(user, assistant llm.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.push(user, assistant)
}

func (w *Window) push(msgs ...llm.Message) {
	w.messages = append(w.messages, msgs...)
	if over := len(w.messages) - w.capacity; over > 0 {
		w.messages = append(w.messages[:0], w.messages[over:]...)
	}
}

// Messages returns a copy of the window, oldest first.
func (w *Window) Messages() []llm.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]llm.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Len returns the number of messages held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

// Clear drops every message.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = w.messages[:0]
}
