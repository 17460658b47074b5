// ABOUTME: Tests for token usage tracking - aggregation, snapshots, and reset.
// ABOUTME: Validates usage accumulation across model requests.
package orchestrator

import (
	"sync"
	"testing"

	"github.com/2389-research/mcphub/llm"
)

func TestTokenUsageAdd(t *testing.T) {
	u := NewTokenUsage()
	if u.Total() != 0 {
		t.Errorf("initial Total() = %d, want 0", u.Total())
	}

	u.Add(llm.Usage{InputTokens: 100, OutputTokens: 50})
	u.Add(llm.Usage{InputTokens: 20, OutputTokens: 5})

	snapshot := u.Snapshot()
	if snapshot.InputTokens != 120 || snapshot.OutputTokens != 55 || snapshot.RequestCount != 2 {
		t.Errorf("unexpected snapshot %+v", &snapshot)
	}
	if u.Total() != 175 {
		t.Errorf("Total() = %d, want 175", u.Total())
	}
}

func TestTokenUsageSnapshotIsIndependent(t *testing.T) {
	u := NewTokenUsage()
	u.Add(llm.Usage{InputTokens: 100})
	snapshot := u.Snapshot()

	u.Add(llm.Usage{InputTokens: 100})
	if snapshot.InputTokens != 100 {
		t.Errorf("snapshot InputTokens = %d, want 100 (unchanged)", snapshot.InputTokens)
	}
}

func TestTokenUsageReset(t *testing.T) {
	u := NewTokenUsage()
	u.Add(llm.Usage{InputTokens: 3, OutputTokens: 4})
	u.Reset()
	if s := u.Snapshot(); s.Total() != 0 || s.RequestCount != 0 {
		t.Errorf("expected zero usage after Reset, got %+v", &s)
	}
}

func TestTokenUsageString(t *testing.T) {
	u := NewTokenUsage()
	u.Add(llm.Usage{InputTokens: 100, OutputTokens: 50})

	want := "100 input + 50 output = 150 total (1 requests)"
	if got := u.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTokenUsageConcurrent(t *testing.T) {
	u := NewTokenUsage()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				u.Add(llm.Usage{InputTokens: 1, OutputTokens: 1})
			}
		}()
	}
	wg.Wait()

	if u.Total() != 2000 {
		t.Errorf("Total() = %d, want 2000", u.Total())
	}
}

func TestEstimateContextTokens(t *testing.T) {
	msgs := []llm.Message{
		llm.NewUserMessage("12345678"),
		{Role: llm.RoleAssistant, Blocks: []llm.ContentBlock{{Type: llm.ContentTypeToolUse, ID: "c1", Name: "ad", Arguments: "{}"}}},
	}
	if got := EstimateContextTokens(msgs); got != 4 {
		t.Errorf("EstimateContextTokens = %d, want 4", got)
	}
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(\"\") = %d, want 0", got)
	}
}
