package llm

import (
	"encoding/json"
	"testing"

	"github.com/openai/openai-go"
)

func mustChatCompletion(t *testing.T, raw string) *openai.ChatCompletion {
	t.Helper()
	var completion openai.ChatCompletion
	if err := json.Unmarshal([]byte(raw), &completion); err != nil {
		t.Fatalf("unmarshal completion: %v", err)
	}
	return &completion
}
