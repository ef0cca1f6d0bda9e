package agent

import (
	"time"

	"github.com/BaSui01/visionagent/llm"
	"github.com/BaSui01/visionagent/tools"
)

// ContextProvided records which page context was supplied to the model when
// the round's decision was requested.
type ContextProvided string

const (
	ContextScreenshotAndDOM ContextProvided = "screenshot_and_dom"
	ContextScreenshot       ContextProvided = "screenshot"
	ContextDOM              ContextProvided = "dom_summary"
	ContextNone             ContextProvided = "none"
)

// ExecutionStatus is the round-level execution result.
type ExecutionStatus string

const (
	ExecutionSuccess     ExecutionStatus = "success"
	ExecutionError       ExecutionStatus = "error"
	ExecutionNotExecuted ExecutionStatus = "not_executed"
)

// Decision is the model's single choice for a round: exactly one tool call,
// or a final answer that ends the session.
type Decision struct {
	ToolCall    *llm.ToolCall `json:"tool_call,omitempty"`
	FinalAnswer string        `json:"final_answer,omitempty"`
	IsFinal     bool          `json:"is_final"`
}

// RoundRecord is the immutable record of one completed round. Index is
// assigned by History.Append and increases by exactly 1 from 0.
type RoundRecord struct {
	Index           int             `json:"index"`
	ModeAtStart     Mode            `json:"mode_at_start"`
	ContextProvided ContextProvided `json:"context_provided"`
	Decision        Decision        `json:"decision"`
	Outcome         *tools.Outcome  `json:"outcome,omitempty"`
	ExecutionStatus ExecutionStatus `json:"execution_status"`
	SystemNotice    string          `json:"system_notice,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
}
