package history_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/mcphub/history"
	"github.com/2389-research/mcphub/llm"
)

func exchange(w *history.Window, n int) {
	w.Append(llm.NewUserMessage(fmt.Sprintf("q%d", n)), llm.NewAssistantMessage(fmt.Sprintf("a%d", n)))
}

func TestWindowNeverExceedsCapacity(t *testing.T) {
	w := history.New(0)
	require.Equal(t, history.DefaultCapacity, w.Capacity())

	for n := 1; n <= 10; n++ {
		exchange(w, n)
		assert.LessOrEqual(t, w.Len(), history.DefaultCapacity, "after turn %d", n)
	}

	msgs := w.Messages()
	require.Len(t, msgs, 6)
	assert.Equal(t, "q8", msgs[0].Content)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, "a10", msgs[5].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[5].Role)
}

func TestWindowOddCapacityEvictsSingleMessages(t *testing.T) {
	w := history.New(3)
	exchange(w, 1)
	exchange(w, 2)

	msgs := w.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"a1", "q2", "a2"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
}

func TestWindowMessagesIsACopy(t *testing.T) {
	w := history.New(4)
	exchange(w, 1)

	msgs := w.Messages()
	msgs[0].Content = "tampered"
	assert.Equal(t, "q1", w.Messages()[0].Content)
}

func TestWindowClear(t *testing.T) {
	w := history.New(4)
	exchange(w, 1)
	w.Clear()
	assert.Zero(t, w.Len())
}
