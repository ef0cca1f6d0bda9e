package fileops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/artifacts"
	"github.com/BaSui01/visionagent/llm"
	"github.com/BaSui01/visionagent/tools"
)

type ocrProvider struct {
	text string
}

func (p *ocrProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if len(req.Messages) == 0 || len(req.Messages[0].Images) == 0 {
		return nil, fmt.Errorf("no image attached")
	}
	return &llm.ChatResponse{Choices: []llm.ChatChoice{{
		Message: llm.NewAssistantMessage(p.text),
	}}}, nil
}

func (p *ocrProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (p *ocrProvider) Name() string         { return "ocr-fake" }
func (p *ocrProvider) SupportsVision() bool { return true }

func newFileExecutor(t *testing.T, provider llm.Provider) (*tools.Executor, *artifacts.Store) {
	t.Helper()
	store, err := artifacts.NewStore(filepath.Join(t.TempDir(), "session"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	reg := tools.NewRegistry(zap.NewNop())
	ts := NewToolset(store, provider, "test-model", zap.NewNop())
	if err := ts.RegisterTools(reg); err != nil {
		t.Fatalf("RegisterTools failed: %v", err)
	}
	return tools.NewExecutor(reg, zap.NewNop()), store
}

func run(t *testing.T, exec *tools.Executor, name, args string) tools.Outcome {
	t.Helper()
	return exec.Execute(context.Background(), llm.ToolCall{
		ID:        "c1",
		Name:      name,
		Arguments: json.RawMessage(args),
	})
}

func TestDownloadPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/report.pdf":
			w.Write([]byte("%PDF-1.4 fake pdf content"))
		case "/page.html":
			w.Write([]byte("<html>not a pdf</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	exec, store := newFileExecutor(t, nil)

	out := run(t, exec, "download_pdf", fmt.Sprintf(`{"url":%q}`, srv.URL+"/report.pdf"))
	if out.IsError() {
		t.Fatalf("download failed: %s", out.Summary)
	}
	if out.Path != "report.pdf" {
		t.Fatalf("path wrong: %q", out.Path)
	}
	if _, err := store.ResolveInput(out.Path); err != nil {
		t.Fatalf("downloaded file not in store: %v", err)
	}

	out = run(t, exec, "download_pdf", fmt.Sprintf(`{"url":%q}`, srv.URL+"/page.html"))
	if !out.IsError() || !strings.Contains(out.Summary, "not a PDF") {
		t.Fatalf("HTML accepted as PDF: %#v", out)
	}

	out = run(t, exec, "download_pdf", fmt.Sprintf(`{"url":%q}`, srv.URL+"/missing.pdf"))
	if !out.IsError() || !strings.Contains(out.Summary, "HTTP 404") {
		t.Fatalf("404 not reported: %#v", out)
	}
}

func TestDownloadPDFCustomFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	exec, _ := newFileExecutor(t, nil)
	out := run(t, exec, "download_pdf", fmt.Sprintf(`{"url":%q,"filename":"annual"}`, srv.URL+"/x"))
	if out.IsError() || out.Path != "annual.pdf" {
		t.Fatalf("filename not honored: %#v", out)
	}
}

func TestWriteText(t *testing.T) {
	exec, store := newFileExecutor(t, nil)

	out := run(t, exec, "write_text", `{"filename":"notes/summary.txt","content":"key findings"}`)
	if out.IsError() {
		t.Fatalf("write_text failed: %s", out.Summary)
	}
	abs, err := store.ResolveInput("summary.txt")
	if err != nil {
		t.Fatalf("written file not found: %v", err)
	}
	data, _ := os.ReadFile(abs)
	if string(data) != "key findings" {
		t.Fatalf("content wrong: %s", data)
	}
}

func TestSaveImageCrop(t *testing.T) {
	exec, store := newFileExecutor(t, nil)

	src := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for x := 40; x < 60; x++ {
		for y := 20; y < 40; y++ {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if _, err := store.Save("page.png", buf.Bytes()); err != nil {
		t.Fatalf("save fixture: %v", err)
	}

	out := run(t, exec, "save_image", `{"image_path":"page.png","output_name":"figure","x":40,"y":20,"width":20,"height":20}`)
	if out.IsError() {
		t.Fatalf("save_image failed: %s", out.Summary)
	}
	abs, err := store.ResolveInput("figure.png")
	if err != nil {
		t.Fatalf("cropped image not found: %v", err)
	}
	f, _ := os.Open(abs)
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("cropped image unreadable: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Fatalf("crop size wrong: %v", img.Bounds())
	}

	out = run(t, exec, "save_image", `{"image_path":"page.png","output_name":"bad","x":500,"y":500,"width":10,"height":10}`)
	if !out.IsError() || out.ErrorKind != tools.ErrKindInvalidInput {
		t.Fatalf("out-of-bounds crop accepted: %#v", out)
	}
}

func TestPDFToolsMissingFile(t *testing.T) {
	exec, _ := newFileExecutor(t, nil)

	for _, name := range []string{"pdf_extract_text", "pdf_extract_images"} {
		out := run(t, exec, name, `{"pdf_path":"ghost.pdf"}`)
		if !out.IsError() || out.ErrorKind != tools.ErrKindNotFound {
			t.Fatalf("%s: expected NotFound, got %#v", name, out)
		}
	}
}

func TestPDFExtractTextRejectsGarbage(t *testing.T) {
	exec, store := newFileExecutor(t, nil)
	if _, err := store.Save("broken.pdf", []byte("not a pdf at all")); err != nil {
		t.Fatalf("save fixture: %v", err)
	}

	out := run(t, exec, "pdf_extract_text", `{"pdf_path":"broken.pdf"}`)
	if !out.IsError() || out.ErrorKind != tools.ErrKindExecutionFailed {
		t.Fatalf("garbage PDF accepted: %#v", out)
	}
}

func TestOCRThroughVisionModel(t *testing.T) {
	exec, store := newFileExecutor(t, &ocrProvider{text: "INVOICE #42\nTotal: $100"})

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if _, err := store.Save("scan.png", buf.Bytes()); err != nil {
		t.Fatalf("save fixture: %v", err)
	}

	out := run(t, exec, "ocr_image_to_text", `{"image_path":"scan.png"}`)
	if out.IsError() {
		t.Fatalf("ocr failed: %s", out.Summary)
	}
	if !strings.Contains(out.Summary, "INVOICE #42") {
		t.Fatalf("ocr text missing: %q", out.Summary)
	}
}

func TestOCRNotRegisteredWithoutProvider(t *testing.T) {
	exec, _ := newFileExecutor(t, nil)
	out := run(t, exec, "ocr_image_to_text", `{"image_path":"x.png"}`)
	if !out.IsError() || out.ErrorKind != tools.ErrKindUnknownTool {
		t.Fatalf("ocr should be absent without a provider: %#v", out)
	}
}
