package agent

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/internal/ctxkeys"
	"github.com/BaSui01/visionagent/llm"
)

// DecisionInput is everything the model sees when asked for a round's
// decision: the task, the history view, and the current context (screenshot
// and DOM summary while web browsing, the local-file listing afterwards).
type DecisionInput struct {
	Task             string
	History          []RoundRecord
	Mode             Mode
	KnownFiles       []string
	ScreenshotBase64 string
	DOMSummary       string
	Tools            []llm.ToolSchema
}

// DecisionMaker turns a decision input into exactly one Decision.
type DecisionMaker interface {
	Decide(ctx context.Context, in DecisionInput) (Decision, error)
}

// PlannerConfig tunes the decision requests.
type PlannerConfig struct {
	Model          string
	MaxTokens      int
	Temperature    float32
	DOMTokenBudget int // max tokens of DOM summary per request
}

// Planner builds chat requests from the round state and parses the model's
// reply into a Decision.
type Planner struct {
	provider llm.Provider
	cfg      PlannerConfig
	tokens   *TokenCounter
	logger   *zap.Logger
}

// NewPlanner creates a planner over a vision provider.
func NewPlanner(provider llm.Provider, cfg PlannerConfig, logger *zap.Logger) (*Planner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DOMTokenBudget <= 0 {
		cfg.DOMTokenBudget = 4000
	}
	counter, err := NewTokenCounter()
	if err != nil {
		return nil, err
	}
	return &Planner{provider: provider, cfg: cfg, tokens: counter, logger: logger}, nil
}

// Decide asks the model for one tool call or a final answer.
func (p *Planner) Decide(ctx context.Context, in DecisionInput) (Decision, error) {
	req := &llm.ChatRequest{
		Model:       p.cfg.Model,
		Messages:    p.buildMessages(in),
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Tools:       in.Tools,
		ToolChoice:  "auto",
		TraceID:     ctxkeys.TraceID(ctx),
	}

	resp, err := p.provider.Completion(ctx, req)
	if err != nil {
		return Decision{}, &ModelDecisionError{Reason: "completion request failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return Decision{}, &ModelDecisionError{Reason: "response has no choices"}
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		// One decision per round: extra calls are ignored, not queued.
		call := msg.ToolCalls[0]
		if call.Name == "" {
			return Decision{}, &ModelDecisionError{Reason: "tool call without a name"}
		}
		if len(call.Arguments) == 0 {
			call.Arguments = json.RawMessage(`{}`)
		}
		if len(msg.ToolCalls) > 1 {
			p.logger.Warn("model returned multiple tool calls, keeping the first",
				zap.Int("count", len(msg.ToolCalls)),
				zap.String("kept", call.Name))
		}
		return Decision{ToolCall: &call}, nil
	}

	answer := strings.TrimSpace(msg.Content)
	if answer == "" {
		return Decision{}, &ModelDecisionError{Reason: "response carries neither a tool call nor an answer"}
	}
	return Decision{IsFinal: true, FinalAnswer: answer}, nil
}

func (p *Planner) buildMessages(in DecisionInput) []llm.Message {
	msgs := make([]llm.Message, 0, 2*len(in.History)+3)
	msgs = append(msgs,
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage("Task: "+in.Task),
	)

	for _, rec := range in.History {
		call := rec.Decision.ToolCall
		if call == nil {
			if rec.SystemNotice != "" {
				msgs = append(msgs, llm.NewUserMessage("[System notice] "+rec.SystemNotice))
			}
			continue
		}
		assistant := llm.NewAssistantMessage("")
		assistant.ToolCalls = []llm.ToolCall{*call}
		msgs = append(msgs,
			assistant,
			llm.NewToolMessage(call.ID, call.Name, toolResultText(rec)),
		)
	}

	switch in.Mode {
	case ModeLocalFileProcessing:
		msgs = append(msgs, llm.NewUserMessage(localFilesBlock(in.KnownFiles)))
	default:
		dom := in.DOMSummary
		if p.tokens != nil {
			dom = p.tokens.Truncate(dom, p.cfg.DOMTokenBudget)
		}
		current := llm.NewUserMessage(webContextBlock(dom))
		if in.ScreenshotBase64 != "" {
			current = current.WithImages([]llm.ImageContent{{Type: "base64", Data: in.ScreenshotBase64}})
		}
		msgs = append(msgs, current)
	}
	return msgs
}
