// Package browser provides the browsing collaborator: a chromedp-backed
// driver, the page-context source for the round loop, and the browser-class
// tools the model can call.
package browser

import (
	"context"
	"time"
)

// Config tunes the browser instance.
type Config struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	ProxyURL       string
	Timeout        time.Duration
}

// Driver is the browser capability contract. One driver owns one page; all
// calls act on the current page.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	ClickSelector(ctx context.Context, selector string) error
	ClickText(ctx context.Context, text string) error
	Type(ctx context.Context, selector, text string) error
	PressKey(ctx context.Context, key string) error
	Scroll(ctx context.Context, deltaY int) error
	Screenshot(ctx context.Context) ([]byte, error)
	DOMSummary(ctx context.Context) (string, error)
	PageContent(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Close() error
}
