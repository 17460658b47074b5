// ABOUTME: Implements token usage tracking across turns.
// ABOUTME: Aggregates input/output tokens and model request counts.
package orchestrator

import (
	"fmt"
	"sync"

	"github.com/2389-research/mcphub/llm"
)

// TokenUsage tracks cumulative token consumption.
type TokenUsage struct {
	mu sync.RWMutex

	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	RequestCount int64 `json:"request_count"`
}

// NewTokenUsage creates a new token usage tracker.
func NewTokenUsage() *TokenUsage {
	return &TokenUsage{}
}

// Add records token usage from one model response.
func (u *TokenUsage) Add(usage llm.Usage) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.InputTokens += int64(usage.InputTokens)
	u.OutputTokens += int64(usage.OutputTokens)
	u.RequestCount++
}

// Total returns the total tokens used (input + output).
func (u *TokenUsage) Total() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.InputTokens + u.OutputTokens
}

// Snapshot returns a copy of the current usage statistics.
func (u *TokenUsage) Snapshot() TokenUsage {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return TokenUsage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		RequestCount: u.RequestCount,
	}
}

// Reset clears all usage statistics.
func (u *TokenUsage) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.InputTokens = 0
	u.OutputTokens = 0
	u.RequestCount = 0
}

// String returns a human-readable summary.
func (u *TokenUsage) String() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return fmt.Sprintf("%d input + %d output = %d total (%d requests)",
		u.InputTokens, u.OutputTokens, u.InputTokens+u.OutputTokens, u.RequestCount)
}
