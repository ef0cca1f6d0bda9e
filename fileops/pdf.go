package fileops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/tools"
)

type pdfArgs struct {
	PDFPath string `json:"pdf_path"`
	PageNum int    `json:"page_num"`
}

func (t *Toolset) pdfExtractText(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args pdfArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}

	abs, err := t.store.ResolveInput(args.PDFPath)
	if err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(abs)
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "open PDF: %v", err)
	}
	defer f.Close()

	total := reader.NumPage()
	if args.PageNum < 0 || args.PageNum > total {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput,
			"page %d out of range: PDF has %d pages", args.PageNum, total)
	}

	first, last := 1, total
	if args.PageNum > 0 {
		first, last = args.PageNum, args.PageNum
	}

	var b strings.Builder
	extracted := 0
	for i := first; i <= last; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			t.logger.Warn("page text extraction failed", zap.Int("page", i), zap.Error(err))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "--- page %d ---\n%s\n", i, text)
		extracted++
	}

	summary := b.String()
	if summary == "" {
		summary = fmt.Sprintf("No text found on the requested pages. PDF has %d pages.", total)
	}
	return &tools.Result{
		Summary:    summary,
		TotalPages: total,
		Found:      extracted,
	}, nil
}

func (t *Toolset) pdfExtractImages(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args pdfArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}

	abs, err := t.store.ResolveInput(args.PDFPath)
	if err != nil {
		return nil, err
	}

	total, err := api.PageCountFile(abs)
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "read PDF: %v", err)
	}
	if args.PageNum < 0 || args.PageNum > total {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput,
			"page %d out of range: PDF has %d pages", args.PageNum, total)
	}

	var pages []string
	if args.PageNum > 0 {
		pages = []string{strconv.Itoa(args.PageNum)}
	}

	outDir, err := os.MkdirTemp("", "pdfimg-*")
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "temp dir: %v", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractImagesFile(abs, outDir, pages, nil); err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "extract images: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "list extracted images: %v", err)
	}

	var saved []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		rel, err := t.store.Save(entry.Name(), data)
		if err != nil {
			continue
		}
		saved = append(saved, rel)
	}

	if len(saved) == 0 {
		scope := "the PDF"
		if args.PageNum > 0 {
			scope = fmt.Sprintf("page %d", args.PageNum)
		}
		return &tools.Result{
			Summary:    fmt.Sprintf("No images found on %s. PDF has %d pages.", scope, total),
			TotalPages: total,
			Found:      0,
		}, nil
	}

	payload, _ := json.Marshal(map[string]any{"images": saved})
	return &tools.Result{
		Summary:    fmt.Sprintf("Extracted %d images: %s. PDF has %d pages.", len(saved), strings.Join(saved, ", "), total),
		Payload:    payload,
		TotalPages: total,
		Found:      len(saved),
	}, nil
}
