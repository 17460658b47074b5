// ABOUTME: Implements the lifecycle Manager - connects providers fail-fast, drives
// ABOUTME: the read/answer loop, and tears every session down in reverse order.
package lifecycle

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389-research/mcphub/mcp"
	"github.com/2389-research/mcphub/provider"
)

// ConnectionError reports the provider that failed to connect at startup.
type ConnectionError struct {
	Provider string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect provider %s: %v", e.Provider, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Dialer opens one provider session.
type Dialer func(ctx context.Context, config mcp.ServerConfig) (*provider.Session, error)

// Turner answers one user query.
type Turner interface {
	RunTurn(ctx context.Context, query string) (string, error)
}

// Config holds Manager settings.
type Config struct {
	// Servers lists the providers in connection order.
	Servers []mcp.ServerConfig

	// Dial opens a session. Defaults to provider.Connect.
	Dial Dialer

	// ConnectTimeout bounds each provider's connect and handshake. Zero
	// means no limit beyond ctx.
	ConnectTimeout time.Duration

	// Prompt is written before each line is read. Empty means no prompt.
	Prompt string

	Logger *slog.Logger
}

// Manager owns every provider session for the life of the process. It is
// the only component that closes sessions.
type Manager struct {
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions []*provider.Session
}

// New creates a Manager.
func New(config Config) *Manager {
	if config.Dial == nil {
		config.Dial = provider.Connect
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{config: config, logger: logger}
}

// ConnectAll connects every configured provider, one at a time and in
// order. If any connection fails, the sessions already connected are closed
// in reverse order and a *ConnectionError is returned; close failures during
// that rollback are joined to it.
func (m *Manager) ConnectAll(ctx context.Context) ([]*provider.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) > 0 {
		return nil, errors.New("lifecycle: providers already connected")
	}

	connected := make([]*provider.Session, 0, len(m.config.Servers))
	for _, server := range m.config.Servers {
		session, err := m.dial(ctx, server)
		if err != nil {
			connErr := &ConnectionError{Provider: server.Name, Err: err}
			m.logger.Error("provider connection failed", "provider", server.Name, "error", err)
			return nil, errors.Join(connErr, closeReverse(connected, m.logger))
		}
		m.logger.Info("provider connected", "provider", server.Name)
		connected = append(connected, session)
	}

	m.sessions = connected
	return append([]*provider.Session(nil), connected...), nil
}

func (m *Manager) dial(ctx context.Context, server mcp.ServerConfig) (*provider.Session, error) {
	if m.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ConnectTimeout)
		defer cancel()
	}
	return m.config.Dial(ctx, server)
}

// Sessions returns the connected sessions in connection order.
func (m *Manager) Sessions() []*provider.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*provider.Session(nil), m.sessions...)
}

// Run reads one query per line from in and writes each reply to out. An
// empty line or the end of input stops the loop. A failed turn is reported
// as "Error: ..." and the loop continues. ctx is only checked between turns:
// the turn itself runs without ctx's cancellation and always finishes. A line
// that arrives after ctx is cancelled is not answered.
func (m *Manager) Run(ctx context.Context, in io.Reader, out io.Writer, turner Turner) error {
	if turner == nil {
		panic("mcphub: turner must not be nil")
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			m.logger.Debug("input loop cancelled", "error", err)
			return nil
		}
		if m.config.Prompt != "" {
			if _, err := io.WriteString(out, m.config.Prompt); err != nil {
				return fmt.Errorf("write prompt: %w", err)
			}
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			m.logger.Debug("input loop cancelled", "error", err)
			return nil
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			return nil
		}

		reply, err := turner.RunTurn(context.WithoutCancel(ctx), query)
		if err != nil {
			m.logger.Warn("turn failed", "error", err)
			reply = "Error: " + err.Error()
		}
		if _, err := fmt.Fprintln(out, reply); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
}

// Shutdown closes every session in reverse connection order. Each close is
// attempted regardless of earlier failures; all failures are returned
// together. Calling Shutdown again is a no-op.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = nil
	m.mu.Unlock()

	return closeReverse(sessions, m.logger)
}

func closeReverse(sessions []*provider.Session, logger *slog.Logger) error {
	var errs []error
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		if err := s.Close(); err != nil {
			logger.Warn("provider close failed", "provider", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("close provider %s: %w", s.Name(), err))
			continue
		}
		logger.Debug("provider closed", "provider", s.Name())
	}
	return errors.Join(errs...)
}
