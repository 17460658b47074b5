package lifecycle_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/mcphub/lifecycle"
	"github.com/2389-research/mcphub/mcp"
	"github.com/2389-research/mcphub/provider"
)

// closeLog records the order in which provider clients are closed.
type closeLog struct {
	mu    sync.Mutex
	order []string
}

func (l *closeLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, name)
}

type fakeClient struct {
	name     string
	log      *closeLog
	closeErr error
}

func (f *fakeClient) Start(context.Context) error                       { return nil }
func (f *fakeClient) ListTools(context.Context) ([]mcp.ToolInfo, error) { return nil, nil }
func (f *fakeClient) CallTool(context.Context, string, map[string]any) (*mcp.ToolCallResult, error) {
	return &mcp.ToolCallResult{}, nil
}
func (f *fakeClient) Close() error {
	f.log.add(f.name)
	return f.closeErr
}

func servers(names ...string) []mcp.ServerConfig {
	out := make([]mcp.ServerConfig, 0, len(names))
	for _, n := range names {
		out = append(out, mcp.ServerConfig{Name: n, Command: n})
	}
	return out
}

// dialer connects fake providers; failConnect and failClose name the
// providers that misbehave.
func dialer(log *closeLog, failConnect string, failClose map[string]error) lifecycle.Dialer {
	return func(ctx context.Context, cfg mcp.ServerConfig) (*provider.Session, error) {
		if cfg.Name == failConnect {
			return nil, errors.New("spawn failed")
		}
		return provider.New(cfg.Name, &fakeClient{name: cfg.Name, log: log, closeErr: failClose[cfg.Name]}), nil
	}
}

func TestConnectAllKeepsConfiguredOrder(t *testing.T) {
	log := &closeLog{}
	m := lifecycle.New(lifecycle.Config{Servers: servers("A", "B", "C"), Dial: dialer(log, "", nil)})

	sessions, err := m.ConnectAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for i, want := range []string{"A", "B", "C"} {
		assert.Equal(t, want, sessions[i].Name())
	}
	assert.Len(t, m.Sessions(), 3)

	_, err = m.ConnectAll(context.Background())
	require.Error(t, err, "a second ConnectAll must be refused")
}

func TestConnectAllRollsBackOnFailure(t *testing.T) {
	log := &closeLog{}
	m := lifecycle.New(lifecycle.Config{Servers: servers("A", "B", "C"), Dial: dialer(log, "C", nil)})

	_, err := m.ConnectAll(context.Background())
	var connErr *lifecycle.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "C", connErr.Provider)
	assert.Contains(t, err.Error(), "spawn failed")

	assert.Equal(t, []string{"B", "A"}, log.order)
	assert.Empty(t, m.Sessions())
}

func TestConnectAllRollbackJoinsCloseFailures(t *testing.T) {
	log := &closeLog{}
	closeErr := errors.New("zombie process")
	m := lifecycle.New(lifecycle.Config{
		Servers: servers("A", "B"),
		Dial:    dialer(log, "B", map[string]error{"A": closeErr}),
	})

	_, err := m.ConnectAll(context.Background())
	var connErr *lifecycle.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.ErrorIs(t, err, closeErr)
}

func TestShutdownReverseOrderDespiteFailure(t *testing.T) {
	log := &closeLog{}
	errB := errors.New("B refused to die")
	m := lifecycle.New(lifecycle.Config{
		Servers: servers("A", "B", "C"),
		Dial:    dialer(log, "", map[string]error{"B": errB}),
	})
	_, err := m.ConnectAll(context.Background())
	require.NoError(t, err)

	err = m.Shutdown()
	require.ErrorIs(t, err, errB)
	assert.Equal(t, []string{"C", "B", "A"}, log.order)

	require.NoError(t, m.Shutdown(), "second Shutdown is a no-op")
	assert.Len(t, log.order, 3)
}

func TestShutdownCollectsEveryFailure(t *testing.T) {
	log := &closeLog{}
	errA, errC := errors.New("A failed"), errors.New("C failed")
	m := lifecycle.New(lifecycle.Config{
		Servers: servers("A", "B", "C"),
		Dial:    dialer(log, "", map[string]error{"A": errA, "C": errC}),
	})
	_, err := m.ConnectAll(context.Background())
	require.NoError(t, err)

	err = m.Shutdown()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	assert.Equal(t, []string{"C", "B", "A"}, log.order)
}

type turnFunc func(ctx context.Context, query string) (string, error)

func (f turnFunc) RunTurn(ctx context.Context, query string) (string, error) { return f(ctx, query) }

func TestRunStopsOnEmptyLine(t *testing.T) {
	var queries []string
	turner := turnFunc(func(_ context.Context, q string) (string, error) {
		queries = append(queries, q)
		if q == "fail" {
			return "", errors.New("model unavailable")
		}
		return "re: " + q, nil
	})

	var out bytes.Buffer
	m := lifecycle.New(lifecycle.Config{})
	err := m.Run(context.Background(), strings.NewReader("hello\nfail\n\nignored\n"), &out, turner)
	require.NoError(t, err)

	assert.Equal(t, []string{"hello", "fail"}, queries)
	assert.Equal(t, "re: hello\nError: model unavailable\n", out.String())
}

func TestRunStopsAtEOFAndWritesPrompt(t *testing.T) {
	turner := turnFunc(func(_ context.Context, q string) (string, error) { return q, nil })

	var out bytes.Buffer
	m := lifecycle.New(lifecycle.Config{Prompt: "> "})
	require.NoError(t, m.Run(context.Background(), strings.NewReader("ping"), &out, turner))
	assert.Equal(t, "> ping\n> ", out.String())
}

func TestRunCancellationOnlyBetweenTurns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var turns int
	turner := turnFunc(func(turnCtx context.Context, q string) (string, error) {
		turns++
		cancel()
		if turnCtx.Err() != nil {
			return "", turnCtx.Err()
		}
		return "finished " + q, nil
	})

	var out bytes.Buffer
	m := lifecycle.New(lifecycle.Config{})
	require.NoError(t, m.Run(ctx, strings.NewReader("one\ntwo\n"), &out, turner))

	assert.Equal(t, 1, turns)
	assert.Equal(t, "finished one\n", out.String())
}

// gatedReader blocks its first Read until released, so a test can act while
// Run is waiting for input.
type gatedReader struct {
	reading chan struct{}
	release chan struct{}
	line    string
	served  bool
}

func (r *gatedReader) Read(p []byte) (int, error) {
	if r.served {
		return 0, io.EOF
	}
	r.served = true
	close(r.reading)
	<-r.release
	return copy(p, r.line), nil
}

func TestRunCancelledWhileWaitingForInput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := &gatedReader{reading: make(chan struct{}), release: make(chan struct{}), line: "late\n"}

	var turns int
	turner := turnFunc(func(context.Context, string) (string, error) {
		turns++
		return "answered", nil
	})

	var out bytes.Buffer
	m := lifecycle.New(lifecycle.Config{})
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, in, &out, turner) }()

	<-in.reading
	cancel()
	close(in.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Zero(t, turns, "a line read after cancellation must not start a turn")
	assert.Empty(t, out.String())
}

func TestConnectAllTimesOutSlowProvider(t *testing.T) {
	log := &closeLog{}
	fast := dialer(log, "", nil)
	dial := func(ctx context.Context, cfg mcp.ServerConfig) (*provider.Session, error) {
		if cfg.Name == "slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return fast(ctx, cfg)
	}

	m := lifecycle.New(lifecycle.Config{
		Servers:        servers("A", "slow", "C"),
		Dial:           dial,
		ConnectTimeout: 20 * time.Millisecond,
	})
	_, err := m.ConnectAll(context.Background())

	var connErr *lifecycle.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "slow", connErr.Provider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"A"}, log.order)
}

func TestConnectAllTimeoutAppliesPerProvider(t *testing.T) {
	var deadlines []time.Time
	dial := func(ctx context.Context, cfg mcp.ServerConfig) (*provider.Session, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok, "dial context must carry a deadline")
		deadlines = append(deadlines, deadline)
		return provider.New(cfg.Name, &fakeClient{name: cfg.Name, log: &closeLog{}}), nil
	}

	m := lifecycle.New(lifecycle.Config{Servers: servers("A", "B"), Dial: dial, ConnectTimeout: time.Minute})
	_, err := m.ConnectAll(context.Background())
	require.NoError(t, err)
	require.Len(t, deadlines, 2)
	assert.False(t, deadlines[1].Before(deadlines[0]))
}
