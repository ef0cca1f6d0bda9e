package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

const pageContentLimit = 10000

// ChromeDriver implements Driver over a dedicated Chrome instance.
type ChromeDriver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      Config
	logger      *zap.Logger
	mu          sync.Mutex
}

// NewChromeDriver starts a Chrome instance.
func NewChromeDriver(config Config, logger *zap.Logger) (*ChromeDriver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ViewportWidth <= 0 {
		config.ViewportWidth = 1280
	}
	if config.ViewportHeight <= 0 {
		config.ViewportHeight = 900
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}
	if config.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(config.ProxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	if config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
	}

	d := &ChromeDriver{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		config:      config,
		logger:      logger.With(zap.String("component", "chrome_driver")),
	}

	if err := chromedp.Run(ctx); err != nil {
		allocCancel()
		cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	d.logger.Info("browser started",
		zap.Bool("headless", config.Headless),
		zap.Int("viewport_w", config.ViewportWidth),
		zap.Int("viewport_h", config.ViewportHeight))
	return d, nil
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("navigating", zap.String("url", url))
	return chromedp.Run(d.ctx, chromedp.Navigate(url))
}

func (d *ChromeDriver) ClickSelector(ctx context.Context, selector string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("clicking", zap.String("selector", selector))
	return chromedp.Run(d.ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *ChromeDriver) ClickText(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("clicking by text", zap.String("text", text))
	var clicked bool
	script := fmt.Sprintf("%s(%q)", clickByTextScript, text)
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("click by text: %w", err)
	}
	if !clicked {
		return fmt.Errorf("no clickable element with text %q", text)
	}
	return nil
}

func (d *ChromeDriver) Type(ctx context.Context, selector, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("typing", zap.String("selector", selector))
	return chromedp.Run(d.ctx,
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

func (d *ChromeDriver) PressKey(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("pressing key", zap.String("key", key))
	return chromedp.Run(d.ctx, chromedp.KeyEvent(mapKey(key)))
}

func (d *ChromeDriver) Scroll(ctx context.Context, deltaY int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debug("scrolling", zap.Int("delta_y", deltaY))
	script := fmt.Sprintf("window.scrollBy(0, %d)", deltaY)
	return chromedp.Run(d.ctx, chromedp.Evaluate(script, nil))
}

func (d *ChromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf []byte
	if err := chromedp.Run(d.ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (d *ChromeDriver) DOMSummary(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var summary string
	if err := chromedp.Run(d.ctx, chromedp.Evaluate(domSummaryScript, &summary)); err != nil {
		return "", fmt.Errorf("dom summary: %w", err)
	}
	return summary, nil
}

func (d *ChromeDriver) PageContent(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var content string
	err := chromedp.Run(d.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		content, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	if len(content) > pageContentLimit {
		content = content[:pageContentLimit] + "..."
	}
	return content, nil
}

func (d *ChromeDriver) URL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var url string
	if err := chromedp.Run(d.ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("get url: %w", err)
	}
	return url, nil
}

func (d *ChromeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Info("closing browser")
	d.cancel()
	d.allocCancel()
	return nil
}

func mapKey(key string) string {
	switch key {
	case "Enter", "enter":
		return kb.Enter
	case "Tab", "tab":
		return kb.Tab
	case "Escape", "escape", "Esc":
		return kb.Escape
	case "Backspace", "backspace":
		return kb.Backspace
	case "ArrowDown", "Down":
		return kb.ArrowDown
	case "ArrowUp", "Up":
		return kb.ArrowUp
	case "ArrowLeft", "Left":
		return kb.ArrowLeft
	case "ArrowRight", "Right":
		return kb.ArrowRight
	case "PageDown":
		return kb.PageDown
	case "PageUp":
		return kb.PageUp
	default:
		return key
	}
}
