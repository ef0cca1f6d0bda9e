package fileops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/tools"
)

const maxDownloadBytes = 100 << 20

var pdfMagic = []byte("%PDF")

type downloadArgs struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (t *Toolset) downloadPDF(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args downloadArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad URL %q: %v", args.URL, err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "read body: %v", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "file exceeds %d bytes", maxDownloadBytes)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed,
			"response is not a PDF (missing %%PDF header); the URL may point to an HTML page")
	}

	name := args.Filename
	if name == "" {
		name = nameFromURL(args.URL)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	rel, err := t.store.Save(name, data)
	if err != nil {
		return nil, err
	}

	t.logger.Info("pdf downloaded",
		zap.String("url", args.URL),
		zap.String("path", rel),
		zap.Int("bytes", len(data)))
	return &tools.Result{
		Summary: fmt.Sprintf("Downloaded %d bytes to %s.", len(data), rel),
		Path:    rel,
	}, nil
}

func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return "download.pdf"
	}
	return path.Base(u.Path)
}
