package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/llm"
)

func newTestProvider(url string) *Provider {
	return New(Config{
		ProviderName: "test",
		APIKey:       "sk-test",
		BaseURL:      url,
		DefaultModel: "test-model",
	}, zap.NewNop())
}

func TestCompletion_ToolCallRoundTrip(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth header: %s", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"model": "test-model",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "goto", "arguments": "{\"url\":\"https://example.com\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("open the site")},
		Tools: []llm.ToolSchema{{
			Name:       "goto",
			Parameters: llm.NewObjectSchema().AddProperty("url", llm.NewStringSchema("URL")).AddRequired("url"),
		}},
	})
	if err != nil {
		t.Fatalf("Completion failed: %v", err)
	}

	if gotBody["model"] != "test-model" {
		t.Fatalf("default model not applied: %v", gotBody["model"])
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("choices: %d", len(resp.Choices))
	}
	call := resp.Choices[0].Message.ToolCalls[0]
	if call.Name != "goto" || call.ID != "call_1" {
		t.Fatalf("tool call wrong: %#v", call)
	}
	var args map[string]string
	if err := json.Unmarshal(call.Arguments, &args); err != nil || args["url"] != "https://example.com" {
		t.Fatalf("arguments wrong: %s", call.Arguments)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Fatalf("usage wrong: %+v", resp.Usage)
	}
}

func TestCompletion_ImagesBecomeDataURLParts(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"model":"m","choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	msg := llm.NewUserMessage("what does the page show?").
		WithImages([]llm.ImageContent{{Type: "base64", Data: "aW1n"}})
	if _, err := p.Completion(context.Background(), &llm.ChatRequest{Messages: []llm.Message{msg}}); err != nil {
		t.Fatalf("Completion failed: %v", err)
	}

	if !strings.Contains(string(raw), `"data:image/png;base64,aW1n"`) {
		t.Fatalf("image not sent as data URL: %s", raw)
	}
	if !strings.Contains(string(raw), `"image_url"`) {
		t.Fatalf("image_url part missing: %s", raw)
	}
}

func TestCompletion_TraceIDBecomesRequestHeader(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Request-Id")
		io.WriteString(w, `{"model":"m","choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	if _, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
		TraceID:  "sess-9-0",
	}); err != nil {
		t.Fatalf("Completion failed: %v", err)
	}
	if gotHeader != "sess-9-0" {
		t.Fatalf("X-Request-Id header wrong: %q", gotHeader)
	}

	if _, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	}); err != nil {
		t.Fatalf("Completion failed: %v", err)
	}
	if gotHeader != "" {
		t.Fatalf("header must be absent without a trace id, got %q", gotHeader)
	}
}

func TestCompletion_ErrorMapping(t *testing.T) {
	cases := []struct {
		status    int
		code      llm.ErrorCode
		retryable bool
	}{
		{http.StatusUnauthorized, llm.ErrUnauthorized, false},
		{http.StatusTooManyRequests, llm.ErrRateLimited, true},
		{http.StatusBadRequest, llm.ErrInvalidRequest, false},
		{http.StatusInternalServerError, llm.ErrUpstreamError, true},
		{http.StatusGatewayTimeout, llm.ErrUpstreamTimeout, true},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			io.WriteString(w, `{"error":{"message":"nope"}}`)
		}))
		p := newTestProvider(srv.URL)
		_, err := p.Completion(context.Background(), &llm.ChatRequest{
			Messages: []llm.Message{llm.NewUserMessage("hi")},
		})
		srv.Close()

		var lerr *llm.Error
		if !errors.As(err, &lerr) {
			t.Fatalf("status %d: expected llm.Error, got %v", tc.status, err)
		}
		if lerr.Code != tc.code || lerr.Retryable != tc.retryable || lerr.Message != "nope" {
			t.Fatalf("status %d mapped wrong: %+v", tc.status, lerr)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	status, err := p.HealthCheck(context.Background())
	if err != nil || !status.Healthy {
		t.Fatalf("health check failed: %v %+v", err, status)
	}

	bad := newTestProvider(srv.URL + "/missing")
	status, err = bad.HealthCheck(context.Background())
	if err == nil || status.Healthy {
		t.Fatalf("unhealthy endpoint reported healthy: %+v", status)
	}
}
