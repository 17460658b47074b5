package provider_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/mcphub/mcp"
	"github.com/2389-research/mcphub/provider"
)

type fakeClient struct {
	tools    []mcp.ToolInfo
	listErr  error
	closeErr error
	delay    time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	closes      atomic.Int32
}

func (f *fakeClient) Start(context.Context) error { return nil }

func (f *fakeClient) ListTools(context.Context) ([]mcp.ToolInfo, error) {
	return f.tools, f.listErr
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolCallResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.maxInFlight.Load()
		if n <= old || f.maxInFlight.CompareAndSwap(old, n) {
			break
		}
	}
	time.Sleep(f.delay)
	return &mcp.ToolCallResult{Content: []mcp.ContentBlock{{Type: "text", Text: name}}}, nil
}

func (f *fakeClient) Close() error {
	f.closes.Add(1)
	return f.closeErr
}

func TestSessionDiscover(t *testing.T) {
	client := &fakeClient{tools: []mcp.ToolInfo{{Name: "add"}, {Name: "sub"}}}
	session := provider.New("math", client)

	assert.Equal(t, "math", session.Name())
	tools, err := session.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.tools, tools)
}

func TestSessionDiscoverError(t *testing.T) {
	session := provider.New("math", &fakeClient{listErr: mcp.ErrClosed})

	_, err := session.Discover(context.Background())
	require.ErrorIs(t, err, mcp.ErrClosed)
	assert.Contains(t, err.Error(), "math")
}

func TestSessionSerializesInvocations(t *testing.T) {
	client := &fakeClient{delay: 5 * time.Millisecond}
	session := provider.New("search", client)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.Invoke(context.Background(), "search", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), client.maxInFlight.Load())
}

func TestSessionWaitHonorsContext(t *testing.T) {
	client := &fakeClient{delay: 200 * time.Millisecond}
	session := provider.New("search", client)

	go session.Invoke(context.Background(), "slow", nil) //nolint:errcheck
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := session.Invoke(ctx, "queued", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionCloseOnce(t *testing.T) {
	closeErr := errors.New("already gone")
	client := &fakeClient{closeErr: closeErr}
	session := provider.New("math", client)

	require.ErrorIs(t, session.Close(), closeErr)
	require.ErrorIs(t, session.Close(), closeErr)
	assert.Equal(t, int32(1), client.closes.Load())
}

func TestConnectRejectsBadConfig(t *testing.T) {
	_, err := provider.Connect(context.Background(), mcp.ServerConfig{Name: "x", Transport: "smoke-signal"})
	require.Error(t, err)
}

func TestNewNilClientPanics(t *testing.T) {
	assert.Panics(t, func() { provider.New("x", nil) })
}
