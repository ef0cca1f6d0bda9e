package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/internal/ctxkeys"
	"github.com/BaSui01/visionagent/llm"
)

// canned provider returns a fixed response and records the last request.
type cannedProvider struct {
	resp    *llm.ChatResponse
	err     error
	lastReq *llm.ChatRequest
}

func (p *cannedProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

func (p *cannedProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (p *cannedProvider) Name() string         { return "canned" }
func (p *cannedProvider) SupportsVision() bool { return true }

func newTestPlanner(provider llm.Provider) *Planner {
	return &Planner{
		provider: provider,
		cfg:      PlannerConfig{Model: "test-model", DOMTokenBudget: 4000},
		logger:   zap.NewNop(),
	}
}

func assistantResponse(msg llm.Message) *llm.ChatResponse {
	return &llm.ChatResponse{Choices: []llm.ChatChoice{{Message: msg}}}
}

func TestPlanner_ParsesToolCall(t *testing.T) {
	msg := llm.NewAssistantMessage("")
	msg.ToolCalls = []llm.ToolCall{
		{ID: "c1", Name: "goto", Arguments: json.RawMessage(`{"url":"https://example.com"}`)},
		{ID: "c2", Name: "screenshot"},
	}
	p := newTestPlanner(&cannedProvider{resp: assistantResponse(msg)})

	dec, err := p.Decide(context.Background(), DecisionInput{Task: "open the site", Mode: ModeWebBrowsing})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if dec.IsFinal || dec.ToolCall == nil || dec.ToolCall.Name != "goto" {
		t.Fatalf("first tool call not selected: %#v", dec)
	}
}

func TestPlanner_ParsesFinalAnswer(t *testing.T) {
	p := newTestPlanner(&cannedProvider{resp: assistantResponse(llm.NewAssistantMessage("  The total is 42.  "))})

	dec, err := p.Decide(context.Background(), DecisionInput{Task: "count", Mode: ModeWebBrowsing})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if !dec.IsFinal || dec.FinalAnswer != "The total is 42." {
		t.Fatalf("final answer wrong: %#v", dec)
	}
}

func TestPlanner_EmptyResponseIsDecisionError(t *testing.T) {
	cases := []struct {
		name     string
		provider *cannedProvider
	}{
		{"transport error", &cannedProvider{err: errors.New("connection refused")}},
		{"no choices", &cannedProvider{resp: &llm.ChatResponse{}}},
		{"empty message", &cannedProvider{resp: assistantResponse(llm.NewAssistantMessage("   "))}},
		{"nameless call", &cannedProvider{resp: assistantResponse(llm.Message{
			Role:      llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{ID: "c1"}},
		})}},
	}
	for _, tc := range cases {
		p := newTestPlanner(tc.provider)
		_, err := p.Decide(context.Background(), DecisionInput{Task: "x", Mode: ModeWebBrowsing})
		var mde *ModelDecisionError
		if !errors.As(err, &mde) {
			t.Fatalf("%s: expected ModelDecisionError, got %v", tc.name, err)
		}
	}
}

func TestPlanner_TraceIDForwardedToProvider(t *testing.T) {
	provider := &cannedProvider{resp: assistantResponse(llm.NewAssistantMessage("done"))}
	p := newTestPlanner(provider)

	ctx := ctxkeys.WithTraceID(context.Background(), "sess-1-3")
	if _, err := p.Decide(ctx, DecisionInput{Task: "x", Mode: ModeWebBrowsing}); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if provider.lastReq.TraceID != "sess-1-3" {
		t.Fatalf("trace id not forwarded: %q", provider.lastReq.TraceID)
	}
}

func TestPlanner_WebModeAttachesScreenshot(t *testing.T) {
	provider := &cannedProvider{resp: assistantResponse(llm.NewAssistantMessage("done"))}
	p := newTestPlanner(provider)

	_, err := p.Decide(context.Background(), DecisionInput{
		Task:             "inspect",
		Mode:             ModeWebBrowsing,
		ScreenshotBase64: "aW1n",
		DOMSummary:       "<main>hello</main>",
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	msgs := provider.lastReq.Messages
	last := msgs[len(msgs)-1]
	if len(last.Images) != 1 || last.Images[0].Data != "aW1n" {
		t.Fatalf("screenshot not attached: %#v", last)
	}
}

func TestPlanner_LocalModeListsFilesNoImages(t *testing.T) {
	provider := &cannedProvider{resp: assistantResponse(llm.NewAssistantMessage("done"))}
	p := newTestPlanner(provider)

	_, err := p.Decide(context.Background(), DecisionInput{
		Task:       "summarize",
		Mode:       ModeLocalFileProcessing,
		KnownFiles: []string{"reports/report.pdf"},
		// Stale context must be ignored in local mode even if supplied.
		ScreenshotBase64: "aW1n",
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	msgs := provider.lastReq.Messages
	last := msgs[len(msgs)-1]
	if len(last.Images) != 0 {
		t.Fatal("local mode must not attach images")
	}
	if want := "reports/report.pdf"; !strings.Contains(last.Content, want) {
		t.Fatalf("file listing missing %q: %q", want, last.Content)
	}
}

func TestPlanner_HistoryRenderedAsToolExchanges(t *testing.T) {
	provider := &cannedProvider{resp: assistantResponse(llm.NewAssistantMessage("done"))}
	p := newTestPlanner(provider)

	hist := []RoundRecord{{
		Index:       0,
		ModeAtStart: ModeWebBrowsing,
		Decision: Decision{ToolCall: &llm.ToolCall{
			ID: "c1", Name: "download_pdf", Arguments: json.RawMessage(`{"url":"u"}`),
		}},
		SystemNotice: "File downloaded successfully",
	}}
	_, err := p.Decide(context.Background(), DecisionInput{Task: "t", Mode: ModeLocalFileProcessing, History: hist})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	var sawCall, sawNotice bool
	for _, m := range provider.lastReq.Messages {
		if m.Role == llm.RoleAssistant && len(m.ToolCalls) == 1 && m.ToolCalls[0].Name == "download_pdf" {
			sawCall = true
		}
		if m.Role == llm.RoleTool && strings.Contains(m.Content, "File downloaded successfully") {
			sawNotice = true
		}
	}
	if !sawCall || !sawNotice {
		t.Fatalf("history not rendered: call=%v notice=%v", sawCall, sawNotice)
	}
}
