// ABOUTME: Builds the SDK transport for a server config - a command transport for
// ABOUTME: stdio, streamable HTTP, or legacy SSE - with isolated env and static headers.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultTerminateGrace is how long closing a stdio server waits for it to
// exit after stdin is closed.
const DefaultTerminateGrace = 2 * time.Second

// normalizeTransport maps the accepted spellings onto the Transport constants.
func normalizeTransport(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "stdio":
		return TransportStdio, true
	case "http", "streamable-http", "streamable_http", "streamablehttp":
		return TransportHTTP, true
	case "sse":
		return TransportSSE, true
	}
	return "", false
}

// NormalizeTransport reports the canonical transport name for name.
func NormalizeTransport(name string) (string, error) {
	canonical, ok := normalizeTransport(name)
	if !ok {
		return "", fmt.Errorf("unsupported transport %q", name)
	}
	return canonical, nil
}

func buildTransport(config ServerConfig) (mcpsdk.Transport, error) {
	transport, err := NormalizeTransport(config.Transport)
	if err != nil {
		return nil, fmt.Errorf("server %s: %w", config.Name, err)
	}

	switch transport {
	case TransportHTTP, TransportSSE:
		if config.URL == "" {
			return nil, fmt.Errorf("server %s: url is required for %s transport", config.Name, transport)
		}
		client := headerClient(config.Headers)
		if transport == TransportSSE {
			return &detachedTransport{inner: &mcpsdk.SSEClientTransport{Endpoint: config.URL, HTTPClient: client}}, nil
		}
		return &mcpsdk.StreamableClientTransport{Endpoint: config.URL, HTTPClient: client}, nil
	default:
		if config.Command == "" {
			return nil, fmt.Errorf("server %s: command is required for stdio transport", config.Name)
		}
		grace := config.TerminateGrace
		if grace <= 0 {
			grace = DefaultTerminateGrace
		}
		return &mcpsdk.CommandTransport{Command: serverCommand(config), TerminateDuration: grace}, nil
	}
}

// serverCommand prepares the stdio server process. It is not bound to any
// context: the process lives until the session is closed.
func serverCommand(config ServerConfig) *exec.Cmd {
	cmd := exec.Command(config.Command, config.Args...) //nolint:gosec // command comes from the operator's provider file
	cmd.Dir = config.Dir
	cmd.Env = buildEnv(config)
	cmd.Stderr = config.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd
}

// buildEnv returns the environment for the server process. The host
// environment is never inherited wholesale.
func buildEnv(config ServerConfig) []string {
	env := []string{}
	for _, name := range config.EnvAllowlist {
		if value, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+value)
		}
	}
	keys := make([]string, 0, len(config.Env))
	for k := range config.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+config.Env[k])
	}
	return env
}

// headerClient returns an HTTP client that sets headers on every request, or
// nil (the SDK default) when there are none.
func headerClient(headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return nil
	}
	return &http.Client{Transport: &headerRoundTripper{headers: headers, next: http.DefaultTransport}}
}

type headerRoundTripper struct {
	headers map[string]string
	next    http.RoundTripper
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return h.next.RoundTrip(req)
}

// detachedTransport connects inner under a context that ctx can cancel only
// while the connection is being set up. The SSE transport ties its event
// stream to the connect context, which would otherwise end the session when
// a connect deadline expires.
type detachedTransport struct {
	inner mcpsdk.Transport
}

func (t *detachedTransport) Connect(ctx context.Context) (mcpsdk.Connection, error) {
	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, cancel)
	conn, err := t.inner.Connect(connCtx)
	stop()
	if err == nil && ctx.Err() == nil {
		return conn, nil
	}
	cancel()
	if err == nil {
		conn.Close() //nolint:errcheck // the connect deadline is the error worth reporting
		return nil, ctx.Err()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %v", ctxErr, err)
	}
	return nil, err
}
