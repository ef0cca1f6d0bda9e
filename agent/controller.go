package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/internal/ctxkeys"
	"github.com/BaSui01/visionagent/internal/metrics"
	"github.com/BaSui01/visionagent/llm"
	"github.com/BaSui01/visionagent/tools"
)

// ContextSource supplies the page context gathered at the top of a round
// while the session is still web browsing.
type ContextSource interface {
	// Screenshot captures the current page, persists it for the round, and
	// returns the base64 PNG plus the saved artifact path.
	Screenshot(ctx context.Context, round int) (base64PNG string, path string, err error)
	// DOMSummary returns a condensed textual summary of the current page.
	DOMSummary(ctx context.Context) (string, error)
}

// LogSink persists the execution log snapshot written after every round.
type LogSink interface {
	SaveExecutionLog(data []byte) error
}

// SessionStatus is the terminal state of a session.
type SessionStatus string

const (
	StatusCompleted       SessionStatus = "completed"
	StatusBudgetExhausted SessionStatus = "budget_exhausted"
	StatusFailed          SessionStatus = "failed"
)

// SessionResult is returned when the round loop terminates.
type SessionResult struct {
	SessionID   string        `json:"session_id"`
	Task        string        `json:"task"`
	Status      SessionStatus `json:"status"`
	FinalAnswer string        `json:"final_answer,omitempty"`
	Rounds      int           `json:"rounds"`
	Mode        Mode          `json:"mode"`
	KnownFiles  []string      `json:"known_files,omitempty"`
	History     []RoundRecord `json:"history"`
	Duration    time.Duration `json:"duration"`
}

// ControllerConfig tunes the round loop.
type ControllerConfig struct {
	MaxRounds     int // round budget, default 20
	HistoryWindow int // max history rounds per decision request, 0 = all
	SessionID     string
}

// Controller runs the session round loop. It is the sole writer of the
// history and the mode tracker; rounds are strictly sequential.
type Controller struct {
	cfg      ControllerConfig
	decider  DecisionMaker
	executor *tools.Executor
	registry *tools.Registry
	pages    ContextSource
	logs     LogSink
	tracker  *Tracker
	history  *History
	logger   *zap.Logger
}

// NewController wires a controller. pages and logs may be nil; context
// gathering and log persistence are then skipped.
func NewController(cfg ControllerConfig, decider DecisionMaker, executor *tools.Executor, registry *tools.Registry, pages ContextSource, logs LogSink, logger *zap.Logger) *Controller {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 20
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		cfg:      cfg,
		decider:  decider,
		executor: executor,
		registry: registry,
		pages:    pages,
		logs:     logs,
		tracker:  NewTracker(),
		history:  NewHistory(),
		logger:   logger.With(zap.String("session_id", cfg.SessionID)),
	}
}

// History exposes the session history, oldest first.
func (c *Controller) History() []RoundRecord { return c.history.Records() }

// Run executes rounds until the model answers, the budget runs out, or the
// model fails to produce a usable decision twice in a row.
func (c *Controller) Run(ctx context.Context, task string) (*SessionResult, error) {
	ctx = ctxkeys.WithSessionID(ctx, c.cfg.SessionID)
	start := time.Now()
	c.logger.Info("session started",
		zap.String("task", task),
		zap.Int("max_rounds", c.cfg.MaxRounds))

	for round := 0; round < c.cfg.MaxRounds; round++ {
		roundCtx := ctxkeys.WithTraceID(ctx, fmt.Sprintf("%s-%d", c.cfg.SessionID, round))
		rec := RoundRecord{
			ModeAtStart:     c.tracker.CurrentMode(),
			ContextProvided: ContextNone,
			StartedAt:       time.Now(),
		}

		var screenshot, domSummary string
		if rec.ModeAtStart == ModeWebBrowsing {
			screenshot, domSummary = c.gatherContext(roundCtx, round)
			rec.ContextProvided = classifyContext(screenshot, domSummary)
		}

		decision, err := c.decide(roundCtx, DecisionInput{
			Task:             task,
			History:          c.history.AsContext(c.cfg.HistoryWindow),
			Mode:             rec.ModeAtStart,
			KnownFiles:       c.tracker.KnownFiles(),
			ScreenshotBase64: screenshot,
			DOMSummary:       domSummary,
			Tools:            c.registry.Schemas(),
		})
		if err != nil {
			rec.ExecutionStatus = ExecutionNotExecuted
			rec.SystemNotice = "Model failed to produce a usable decision: " + err.Error()
			c.history.Append(rec)
			c.saveLog(task, StatusFailed, "")
			c.finish(StatusFailed, start)
			return c.result(task, StatusFailed, "", start), err
		}
		rec.Decision = decision

		if decision.IsFinal {
			rec.ExecutionStatus = ExecutionNotExecuted
			c.history.Append(rec)
			metrics.RoundsTotal.Inc()
			c.saveLog(task, StatusCompleted, decision.FinalAnswer)
			c.finish(StatusCompleted, start)
			c.logger.Info("session completed", zap.Int("rounds", c.history.Len()))
			return c.result(task, StatusCompleted, decision.FinalAnswer, start), nil
		}

		outcome := c.executor.Execute(roundCtx, *decision.ToolCall)
		rec.Outcome = &outcome
		if outcome.IsError() {
			rec.ExecutionStatus = ExecutionError
		} else {
			rec.ExecutionStatus = ExecutionSuccess
		}
		metrics.ToolExecutionsTotal.WithLabelValues(outcome.Name, string(outcome.Status)).Inc()

		c.applyOutcomePolicies(&rec, outcome)

		index := c.history.Append(rec)
		metrics.RoundsTotal.Inc()
		c.saveLog(task, "", "")
		c.logger.Info("round recorded",
			zap.Int("index", index),
			zap.String("mode", string(rec.ModeAtStart)),
			zap.String("tool", outcome.Name),
			zap.String("status", string(outcome.Status)))
	}

	c.saveLog(task, StatusBudgetExhausted, "")
	c.finish(StatusBudgetExhausted, start)
	c.logger.Warn("round budget exhausted", zap.Int("rounds", c.history.Len()))
	return c.result(task, StatusBudgetExhausted, "", start), ErrBudgetExhausted
}

// decide retries a failed decision request exactly once.
func (c *Controller) decide(ctx context.Context, in DecisionInput) (Decision, error) {
	decision, err := c.decider.Decide(ctx, in)
	if err == nil {
		return decision, nil
	}
	c.logger.Warn("decision request failed, retrying once", zap.Error(err))
	return c.decider.Decide(ctx, in)
}

// gatherContext captures the screenshot and DOM summary. Either collaborator
// may fail without ending the round; the model just gets less context.
func (c *Controller) gatherContext(ctx context.Context, round int) (screenshot, domSummary string) {
	if c.pages == nil {
		return "", ""
	}
	shot, path, err := c.pages.Screenshot(ctx, round)
	if err != nil {
		c.logger.Warn("screenshot failed", zap.Int("round", round), zap.Error(err))
	} else {
		screenshot = shot
		c.logger.Debug("screenshot captured", zap.Int("round", round), zap.String("path", path))
	}
	dom, err := c.pages.DOMSummary(ctx)
	if err != nil {
		c.logger.Warn("dom summary failed", zap.Int("round", round), zap.Error(err))
	} else {
		domSummary = dom
	}
	return screenshot, domSummary
}

// applyOutcomePolicies synthesizes the system notices that keep the model's
// picture of the session accurate: the mode-switch announcement after the
// first successful download, and the retry hint after a page-scoped miss.
// Notices are data in the history, never forced actions.
func (c *Controller) applyOutcomePolicies(rec *RoundRecord, outcome tools.Outcome) {
	meta, ok := c.registry.Lookup(outcome.Name)
	if !ok || outcome.IsError() {
		return
	}

	switch meta.Class {
	case tools.ClassDownload:
		if outcome.Path == "" {
			return
		}
		if c.tracker.RegisterDownloadedFile(outcome.Path) {
			rec.SystemNotice = downloadNotice(outcome.Path)
			metrics.ModeTransitionsTotal.Inc()
			c.logger.Info("mode switched to local file processing",
				zap.String("path", outcome.Path))
		}
	case tools.ClassPageScoped:
		if rec.ModeAtStart != ModeLocalFileProcessing || outcome.Found > 0 {
			return
		}
		page, scoped := requestedPage(rec.Decision.ToolCall)
		if !scoped {
			return
		}
		rec.SystemNotice = pageMissNotice(page, outcome.TotalPages)
	}
}

// requestedPage reports whether the call was restricted to a single page.
// Non-positive values mean "all pages" to the extraction tools, so they do
// not count as a page restriction.
func requestedPage(call *llm.ToolCall) (int, bool) {
	if call == nil || len(call.Arguments) == 0 {
		return 0, false
	}
	var args map[string]any
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return 0, false
	}
	for _, key := range []string{"page_num", "page"} {
		if v, ok := args[key]; ok {
			if f, ok := v.(float64); ok && f >= 1 {
				return int(f), true
			}
		}
	}
	return 0, false
}

func classifyContext(screenshot, domSummary string) ContextProvided {
	switch {
	case screenshot != "" && domSummary != "":
		return ContextScreenshotAndDOM
	case screenshot != "":
		return ContextScreenshot
	case domSummary != "":
		return ContextDOM
	default:
		return ContextNone
	}
}

type executionLog struct {
	SessionID   string        `json:"session_id"`
	Task        string        `json:"task"`
	Status      SessionStatus `json:"status,omitempty"`
	Mode        Mode          `json:"mode"`
	KnownFiles  []string      `json:"known_files,omitempty"`
	FinalAnswer string        `json:"final_answer,omitempty"`
	Rounds      []RoundRecord `json:"rounds"`
	SavedAt     time.Time     `json:"saved_at"`
}

// saveLog snapshots the session after every round. Persistence failures are
// logged and swallowed; the loop never stops for them.
func (c *Controller) saveLog(task string, status SessionStatus, answer string) {
	if c.logs == nil {
		return
	}
	snapshot := executionLog{
		SessionID:   c.cfg.SessionID,
		Task:        task,
		Status:      status,
		Mode:        c.tracker.CurrentMode(),
		KnownFiles:  c.tracker.KnownFiles(),
		FinalAnswer: answer,
		Rounds:      c.history.Records(),
		SavedAt:     time.Now(),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		c.logger.Warn("execution log marshal failed", zap.Error(err))
		return
	}
	if err := c.logs.SaveExecutionLog(data); err != nil {
		c.logger.Warn("execution log save failed", zap.Error(err))
	}
}

func (c *Controller) finish(status SessionStatus, start time.Time) {
	metrics.SessionsTotal.WithLabelValues(string(status)).Inc()
	metrics.SessionDuration.Observe(time.Since(start).Seconds())
}

func (c *Controller) result(task string, status SessionStatus, answer string, start time.Time) *SessionResult {
	return &SessionResult{
		SessionID:   c.cfg.SessionID,
		Task:        task,
		Status:      status,
		FinalAnswer: answer,
		Rounds:      c.history.Len(),
		Mode:        c.tracker.CurrentMode(),
		KnownFiles:  c.tracker.KnownFiles(),
		History:     c.history.Records(),
		Duration:    time.Since(start),
	}
}
