package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/llm"
)

// Executor dispatches a model-chosen tool call through the registry. It
// never lets a tool failure escape: unknown names, bad arguments, panics,
// and timeouts all come back as error Outcomes.
type Executor struct {
	registry *Registry
	logger   *zap.Logger
}

// NewExecutor creates an executor over a registry.
func NewExecutor(registry *Registry, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, logger: logger}
}

// Execute runs one tool call and returns its normalized outcome.
func (e *Executor) Execute(ctx context.Context, call llm.ToolCall) Outcome {
	start := time.Now()
	outcome := Outcome{
		ToolCallID: call.ID,
		Name:       call.Name,
		Status:     StatusError,
	}

	fn, meta, err := e.registry.Get(call.Name)
	if err != nil {
		outcome.ErrorKind = ErrKindUnknownTool
		outcome.Summary = fmt.Sprintf("unknown tool %q", call.Name)
		outcome.Duration = time.Since(start)
		e.logger.Warn("unknown tool", zap.String("name", call.Name))
		return outcome
	}

	if err := meta.Schema.Parameters.Validate(call.Arguments); err != nil {
		outcome.ErrorKind = ErrKindInvalidArguments
		outcome.Summary = fmt.Sprintf("invalid arguments for %s: %v", call.Name, err)
		outcome.Duration = time.Since(start)
		e.logger.Warn("invalid tool arguments", zap.String("name", call.Name), zap.Error(err))
		return outcome
	}

	if !e.registry.allow(call.Name) {
		outcome.ErrorKind = ErrKindExecutionFailed
		outcome.Summary = fmt.Sprintf("rate limit exceeded for %s", call.Name)
		outcome.Duration = time.Since(start)
		e.logger.Warn("rate limit exceeded", zap.String("name", call.Name))
		return outcome
	}

	execCtx, cancel := context.WithTimeout(ctx, meta.Timeout)
	defer cancel()

	type execDone struct {
		result *Result
		err    error
	}
	// Buffered so the goroutine can exit even if nobody receives after a
	// timeout.
	doneCh := make(chan execDone, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				doneCh <- execDone{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		result, err := fn(execCtx, call.Arguments)
		select {
		case doneCh <- execDone{result: result, err: err}:
		case <-execCtx.Done():
		}
	}()

	select {
	case done := <-doneCh:
		outcome.Duration = time.Since(start)
		if done.err != nil {
			if te, ok := done.err.(*ToolError); ok {
				outcome.ErrorKind = te.Kind
				outcome.Summary = te.Message
			} else {
				outcome.ErrorKind = ErrKindToolExecution
				outcome.Summary = done.err.Error()
			}
			e.logger.Warn("tool execution failed",
				zap.String("name", call.Name),
				zap.String("kind", string(outcome.ErrorKind)),
				zap.String("error", outcome.Summary),
				zap.Duration("duration", outcome.Duration))
			return outcome
		}

		outcome.Status = StatusSuccess
		outcome.ErrorKind = ""
		if done.result != nil {
			outcome.Summary = done.result.Summary
			outcome.Payload = done.result.Payload
			outcome.Path = done.result.Path
			outcome.TotalPages = done.result.TotalPages
			outcome.Found = done.result.Found
		}
		e.logger.Debug("tool executed",
			zap.String("name", call.Name),
			zap.Duration("duration", outcome.Duration))
		return outcome

	case <-execCtx.Done():
		outcome.Duration = time.Since(start)
		if errors.Is(execCtx.Err(), context.Canceled) {
			// The session was canceled, not the tool's own deadline.
			outcome.ErrorKind = ErrKindExecutionFailed
			outcome.Summary = "execution canceled"
			e.logger.Warn("tool execution canceled", zap.String("name", call.Name))
			return outcome
		}
		outcome.ErrorKind = ErrKindTimeout
		outcome.Summary = fmt.Sprintf("execution timeout after %s", meta.Timeout)
		e.logger.Warn("tool execution timeout",
			zap.String("name", call.Name),
			zap.Duration("timeout", meta.Timeout))
		return outcome
	}
}
