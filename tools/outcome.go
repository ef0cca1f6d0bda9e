package tools

import (
	"encoding/json"
	"fmt"
	"time"
)

// Class classifies a tool for controller policy. Download-class outcomes
// trigger the context-mode transition; page-scoped outcomes feed the
// page-miss hinting policy.
type Class string

const (
	ClassBrowser     Class = "browser_control"
	ClassInformation Class = "information"
	ClassWaiting     Class = "waiting"
	ClassDownload    Class = "download"
	ClassFile        Class = "file_operations"
	ClassPageScoped  Class = "page_scoped"
)

// Status is the outcome status of a tool execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorKind identifies why a tool execution failed.
type ErrorKind string

const (
	// Executor-level kinds.
	ErrKindUnknownTool      ErrorKind = "UnknownTool"
	ErrKindInvalidArguments ErrorKind = "InvalidArguments"
	ErrKindToolExecution    ErrorKind = "ToolExecutionError"

	// Capability-level kinds declared by tool implementations.
	ErrKindNotFound        ErrorKind = "NotFound"
	ErrKindInvalidInput    ErrorKind = "InvalidInput"
	ErrKindExecutionFailed ErrorKind = "ExecutionFailed"
	ErrKindTimeout         ErrorKind = "Timeout"
)

// ToolError is a failure a tool reports about its own execution, carrying a
// capability-level kind. Any other error a tool returns is wrapped as
// ToolExecutionError by the executor.
type ToolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewToolError creates a ToolError with the given kind.
func NewToolError(kind ErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Result is a tool's success payload.
type Result struct {
	// Summary is a model-readable description of what happened. Always set.
	Summary string `json:"summary"`

	// Payload carries tool-specific structured data, passed through
	// unchanged by the executor.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Path is set by download-class tools: the artifact path of the
	// downloaded file, relative to the artifacts root.
	Path string `json:"path,omitempty"`

	// TotalPages is set by page-scoped extraction tools: the total unit
	// count of the document, for retry hints.
	TotalPages int `json:"total_pages,omitempty"`

	// Found is set by page-scoped extraction tools: how many items the
	// requested scope produced.
	Found int `json:"found,omitempty"`
}

// Outcome is the normalized record of one tool execution, consumed exactly
// once by the round controller.
type Outcome struct {
	ToolCallID string          `json:"tool_call_id"`
	Name       string          `json:"name"`
	Status     Status          `json:"status"`
	ErrorKind  ErrorKind       `json:"error_kind,omitempty"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Path       string          `json:"path,omitempty"`
	TotalPages int             `json:"total_pages,omitempty"`
	Found      int             `json:"found,omitempty"`
	Duration   time.Duration   `json:"duration"`
}

// IsError reports whether the execution failed.
func (o Outcome) IsError() bool { return o.Status == StatusError }
