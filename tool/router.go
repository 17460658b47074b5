// ABOUTME: Implements the Router - resolves a requested tool name to the tool that
// ABOUTME: owns it and runs the invocation under a timeout with hooks and recovery.
package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInvokeTimeout bounds a single invocation when none is configured.
const DefaultInvokeTimeout = 30 * time.Second

var (
	// ErrNotFound means no tool is bound to the requested name.
	ErrNotFound = errors.New("tool not found")

	// ErrToolReported means the tool ran and reported a failure itself.
	ErrToolReported = errors.New("tool reported an error")
)

// InvocationError describes any failed invocation: bad arguments, transport
// failure, a tool-reported error, a timeout, or a panic.
type InvocationError struct {
	Tool   string
	CallID string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Tool, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Timeout reports whether the invocation ran out of time.
func (e *InvocationError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Call is one function-call request from the model.
type Call struct {
	ID        string
	Name      string
	Arguments string
}

// BeforeHook is called before tool execution.
type BeforeHook func(ctx context.Context, call Call, params map[string]any)

// AfterHook is called after tool execution. err is nil or an *InvocationError.
type AfterHook func(ctx context.Context, call Call, output string, err error)

// RouterConfig holds Router settings.
type RouterConfig struct {
	// InvokeTimeout bounds each invocation. Defaults to DefaultInvokeTimeout.
	InvokeTimeout time.Duration

	// Logger receives debug and warning records. Defaults to a discard logger.
	Logger *slog.Logger
}

// Router resolves tool names against a Source and runs invocations.
type Router struct {
	source      Source
	timeout     time.Duration
	logger      *slog.Logger
	beforeHooks []BeforeHook
	afterHooks  []AfterHook
}

// NewRouter creates a Router over source. Panics if source is nil.
func NewRouter(source Source, cfg RouterConfig) *Router {
	if source == nil {
		panic("mcphub: source must not be nil")
	}
	if cfg.InvokeTimeout <= 0 {
		cfg.InvokeTimeout = DefaultInvokeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		source:  source,
		timeout: cfg.InvokeTimeout,
		logger:  cfg.Logger,
	}
}

// AddBeforeHook adds a hook that runs before tool execution.
func (r *Router) AddBeforeHook(hook BeforeHook) {
	r.beforeHooks = append(r.beforeHooks, hook)
}

// AddAfterHook adds a hook that runs after tool execution.
func (r *Router) AddAfterHook(hook AfterHook) {
	r.afterHooks = append(r.afterHooks, hook)
}

// Source returns the underlying tool source.
func (r *Router) Source() Source {
	return r.source
}

// Resolve returns the tool bound to name.
func (r *Router) Resolve(name string) (Tool, error) {
	t, ok := r.source.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Invoke runs call and returns the tool's output text. Every failure is
// returned as an *InvocationError.
//
// The invocation does not inherit ctx's cancellation: once started it runs
// until it completes or the invoke timeout expires.
func (r *Router) Invoke(ctx context.Context, call Call) (string, error) {
	output, err := r.invoke(ctx, call)
	if err != nil {
		err = &InvocationError{Tool: call.Name, CallID: call.ID, Err: err}
	}

	for _, hook := range r.afterHooks {
		r.runHook("after", call, func() { hook(ctx, call, output, err) })
	}
	return output, err
}

func (r *Router) invoke(ctx context.Context, call Call) (string, error) {
	t, err := r.Resolve(call.Name)
	if err != nil {
		return "", err
	}

	params, err := DecodeArguments(call.Arguments, t.InputSchema())
	if err != nil {
		return "", err
	}

	for _, hook := range r.beforeHooks {
		r.runHook("before", call, func() { hook(ctx, call, params) })
	}

	invokeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", p)}
			}
		}()
		result, err := t.Execute(invokeCtx, params)
		done <- outcome{result: result, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-invokeCtx.Done():
		r.logger.Warn("tool invocation timed out",
			"tool", call.Name, "call_id", call.ID, "timeout", r.timeout)
		return "", fmt.Errorf("timed out after %s: %w", r.timeout, invokeCtx.Err())
	}

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s: %w", r.timeout, out.err)
		}
		return "", out.err
	}
	if out.result == nil {
		return "", nil
	}
	if out.result.IsError {
		return "", fmt.Errorf("%w: %s", ErrToolReported, out.result.Output)
	}
	return out.result.Output, nil
}

// runHook executes fn, logging instead of propagating a panic.
func (r *Router) runHook(stage string, call Call, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("tool hook panicked",
				"stage", stage, "tool", call.Name, "call_id", call.ID, "panic", p)
		}
	}()
	fn()
}
