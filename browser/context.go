package browser

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/artifacts"
)

// PageContext gathers the per-round page context for the agent loop. Each
// round's screenshot is persisted as step_NN.png under the artifacts root.
type PageContext struct {
	driver Driver
	store  *artifacts.Store
	logger *zap.Logger
}

// NewPageContext wires a context source over a driver and artifact store.
func NewPageContext(driver Driver, store *artifacts.Store, logger *zap.Logger) *PageContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageContext{driver: driver, store: store, logger: logger}
}

// Screenshot captures the page, saves it for the round, and returns the
// base64 PNG plus the saved artifact path.
func (p *PageContext) Screenshot(ctx context.Context, round int) (string, string, error) {
	png, err := p.driver.Screenshot(ctx)
	if err != nil {
		return "", "", err
	}
	path, err := p.store.Save(fmt.Sprintf("step_%02d.png", round), png)
	if err != nil {
		// The model can still see the page even if persistence failed.
		p.logger.Warn("round screenshot not persisted", zap.Error(err))
		path = ""
	}
	return base64.StdEncoding.EncodeToString(png), path, nil
}

// DOMSummary returns the condensed page summary.
func (p *PageContext) DOMSummary(ctx context.Context) (string, error) {
	return p.driver.DOMSummary(ctx)
}
