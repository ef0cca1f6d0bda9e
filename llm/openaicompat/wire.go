package openaicompat

import "github.com/BaSui01/visionagent/llm"

// OpenAI chat completions wire format. Messages with images are encoded as
// content-part arrays; text-only messages stay plain strings so non-vision
// models keep working.

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireContentPart struct {
	Type     string        `json:"type"` // "text" or "image_url"
	Text     string        `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type wireTool struct {
	Type     string           `json:"type"` // always "function"
	Function wireFunctionSpec `json:"function"`
}

type wireFunctionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  *llm.JSONSchema `json:"parameters,omitempty"`
}

type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int         `json:"index"`
		FinishReason string      `json:"finish_reason"`
		Message      wireRxMsg   `json:"message"`
		Logprobs     interface{} `json:"logprobs,omitempty"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type wireRxMsg struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

func convertMessages(in []llm.Message) []wireMessage {
	out := make([]wireMessage, 0, len(in))
	for _, m := range in {
		wm := wireMessage{
			Role:       string(m.Role),
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireFunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		if len(m.Images) > 0 {
			parts := make([]wireContentPart, 0, len(m.Images)+1)
			if m.Content != "" {
				parts = append(parts, wireContentPart{Type: "text", Text: m.Content})
			}
			for _, img := range m.Images {
				url := img.URL
				if img.Type == "base64" {
					url = "data:image/png;base64," + img.Data
				}
				parts = append(parts, wireContentPart{
					Type:     "image_url",
					ImageURL: &wireImageURL{URL: url, Detail: "high"},
				})
			}
			wm.Content = parts
		} else {
			wm.Content = m.Content
		}
		out = append(out, wm)
	}
	return out
}

func convertTools(in []llm.ToolSchema) []wireTool {
	if len(in) == 0 {
		return nil
	}
	out := make([]wireTool, 0, len(in))
	for _, t := range in {
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunctionSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
