package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/artifacts"
	"github.com/BaSui01/visionagent/llm"
	"github.com/BaSui01/visionagent/tools"
)

const maxWaitSeconds = 30

// RegisterTools registers the browser-facing tools on the registry: page
// control, information extraction, and waiting.
func RegisterTools(reg *tools.Registry, driver Driver, store *artifacts.Store, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &toolset{driver: driver, store: store, logger: logger}

	entries := []struct {
		name  string
		meta  tools.Metadata
		fn    tools.ToolFunc
	}{
		{
			name: "goto",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "goto",
					Description: "Navigate the browser to a URL.",
					Parameters: llm.NewObjectSchema().
						AddProperty("url", llm.NewStringSchema("absolute URL to open")).
						AddRequired("url"),
				},
				Class:   tools.ClassBrowser,
				Timeout: 60 * time.Second,
			},
			fn: t.gotoURL,
		},
		{
			name: "click",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "click",
					Description: "Click an element by CSS selector or by its visible text. Provide exactly one of selector or text.",
					Parameters: llm.NewObjectSchema().
						AddProperty("selector", llm.NewStringSchema("CSS selector of the element")).
						AddProperty("text", llm.NewStringSchema("visible text of the element")),
				},
				Class: tools.ClassBrowser,
			},
			fn: t.click,
		},
		{
			name: "type_text",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "type_text",
					Description: "Clear an input field and type text into it.",
					Parameters: llm.NewObjectSchema().
						AddProperty("selector", llm.NewStringSchema("CSS selector of the input")).
						AddProperty("text", llm.NewStringSchema("text to type")).
						AddRequired("selector").
						AddRequired("text"),
				},
				Class: tools.ClassBrowser,
			},
			fn: t.typeText,
		},
		{
			name: "press_key",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "press_key",
					Description: "Press a keyboard key, for example Enter, Tab or Escape.",
					Parameters: llm.NewObjectSchema().
						AddProperty("key", llm.NewStringSchema("key name")).
						AddRequired("key"),
				},
				Class: tools.ClassBrowser,
			},
			fn: t.pressKey,
		},
		{
			name: "scroll",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "scroll",
					Description: "Scroll the page vertically. Positive delta scrolls down.",
					Parameters: llm.NewObjectSchema().
						AddProperty("delta_y", llm.NewIntegerSchema("pixels to scroll, default 600")),
				},
				Class: tools.ClassBrowser,
			},
			fn: t.scroll,
		},
		{
			name: "wait_seconds",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "wait_seconds",
					Description: "Wait for the page to settle, up to 30 seconds.",
					Parameters: llm.NewObjectSchema().
						AddProperty("seconds", llm.NewNumberSchema("seconds to wait, default 1")),
				},
				Class:   tools.ClassWaiting,
				Timeout: 40 * time.Second,
			},
			fn: t.wait,
		},
		{
			name: "screenshot",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "screenshot",
					Description: "Capture the current page and save it as an artifact.",
					Parameters:  llm.NewObjectSchema(),
				},
				Class: tools.ClassInformation,
			},
			fn: t.screenshot,
		},
		{
			name: "dom_summary",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "dom_summary",
					Description: "Get a condensed summary of the current page: headings, links, controls.",
					Parameters:  llm.NewObjectSchema(),
				},
				Class: tools.ClassInformation,
			},
			fn: t.domSummary,
		},
		{
			name: "get_page_content",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "get_page_content",
					Description: "Get the raw HTML of the current page, truncated.",
					Parameters:  llm.NewObjectSchema(),
				},
				Class: tools.ClassInformation,
			},
			fn: t.pageContent,
		},
		{
			name: "close_browser",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "close_browser",
					Description: "Close the browser when no further web interaction is needed.",
					Parameters:  llm.NewObjectSchema(),
				},
				Class: tools.ClassBrowser,
			},
			fn: t.closeBrowser,
		},
	}

	for _, e := range entries {
		if err := reg.Register(e.name, e.fn, e.meta); err != nil {
			return err
		}
	}
	return nil
}

type toolset struct {
	driver Driver
	store  *artifacts.Store
	logger *zap.Logger
}

type gotoArgs struct {
	URL string `json:"url"`
}

func (t *toolset) gotoURL(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args gotoArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}
	if err := t.driver.Navigate(ctx, args.URL); err != nil {
		return nil, err
	}
	current, err := t.driver.URL(ctx)
	if err != nil {
		current = args.URL
	}
	return &tools.Result{Summary: fmt.Sprintf("Navigated. Current URL: %s", current)}, nil
}

type clickArgs struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

func (t *toolset) click(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args clickArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}
	if (args.Selector == "") == (args.Text == "") {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "provide exactly one of selector or text")
	}

	before, _ := t.driver.URL(ctx)
	var err error
	var target string
	if args.Selector != "" {
		target = args.Selector
		err = t.driver.ClickSelector(ctx, args.Selector)
	} else {
		target = args.Text
		err = t.driver.ClickText(ctx, args.Text)
	}
	if err != nil {
		return nil, err
	}

	after, _ := t.driver.URL(ctx)
	summary := fmt.Sprintf("Clicked %q.", target)
	if after != "" && after == before {
		summary += " The page URL did not change; the click may have had no effect." +
			" Check the page state, or try a different element."
	} else if after != "" {
		summary += fmt.Sprintf(" Current URL: %s", after)
	}
	return &tools.Result{Summary: summary}, nil
}

type typeArgs struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

func (t *toolset) typeText(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args typeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}
	if err := t.driver.Type(ctx, args.Selector, args.Text); err != nil {
		return nil, err
	}
	return &tools.Result{Summary: fmt.Sprintf("Typed %d characters into %q.", len(args.Text), args.Selector)}, nil
}

type keyArgs struct {
	Key string `json:"key"`
}

func (t *toolset) pressKey(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args keyArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}
	if err := t.driver.PressKey(ctx, args.Key); err != nil {
		return nil, err
	}
	return &tools.Result{Summary: fmt.Sprintf("Pressed %s.", args.Key)}, nil
}

type scrollArgs struct {
	DeltaY int `json:"delta_y"`
}

func (t *toolset) scroll(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args scrollArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}
	if args.DeltaY == 0 {
		args.DeltaY = 600
	}
	if err := t.driver.Scroll(ctx, args.DeltaY); err != nil {
		return nil, err
	}
	return &tools.Result{Summary: fmt.Sprintf("Scrolled by %d pixels.", args.DeltaY)}, nil
}

type waitArgs struct {
	Seconds float64 `json:"seconds"`
}

func (t *toolset) wait(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args waitArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}
	if args.Seconds <= 0 {
		args.Seconds = 1
	}
	if args.Seconds > maxWaitSeconds {
		args.Seconds = maxWaitSeconds
	}
	d := time.Duration(args.Seconds * float64(time.Second))
	select {
	case <-time.After(d):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &tools.Result{Summary: fmt.Sprintf("Waited %.1f seconds.", args.Seconds)}, nil
}

func (t *toolset) screenshot(ctx context.Context, _ json.RawMessage) (*tools.Result, error) {
	png, err := t.driver.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("screenshot_%d.png", time.Now().Unix())
	path, err := t.store.Save(name, png)
	if err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(map[string]string{"base64_png": base64.StdEncoding.EncodeToString(png)})
	return &tools.Result{
		Summary: fmt.Sprintf("Screenshot saved to %s.", path),
		Payload: payload,
	}, nil
}

func (t *toolset) domSummary(ctx context.Context, _ json.RawMessage) (*tools.Result, error) {
	summary, err := t.driver.DOMSummary(ctx)
	if err != nil {
		return nil, err
	}
	return &tools.Result{Summary: summary}, nil
}

func (t *toolset) pageContent(ctx context.Context, _ json.RawMessage) (*tools.Result, error) {
	content, err := t.driver.PageContent(ctx)
	if err != nil {
		return nil, err
	}
	return &tools.Result{Summary: content}, nil
}

func (t *toolset) closeBrowser(ctx context.Context, _ json.RawMessage) (*tools.Result, error) {
	if err := t.driver.Close(); err != nil {
		return nil, err
	}
	return &tools.Result{Summary: "Browser closed."}, nil
}
