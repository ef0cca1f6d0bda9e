// Package fileops implements the download and local-file tools: PDF text
// and image extraction, image cropping, OCR through the vision model, and
// plain text output. All paths are resolved against the artifacts store.
package fileops

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/visionagent/artifacts"
	"github.com/BaSui01/visionagent/llm"
	"github.com/BaSui01/visionagent/tools"
)

// Toolset carries the collaborators shared by the file tools.
type Toolset struct {
	store    *artifacts.Store
	provider llm.Provider
	model    string
	client   *http.Client
	logger   *zap.Logger
}

// NewToolset creates the file toolset. provider is used only by OCR and may
// be nil when OCR is not registered.
func NewToolset(store *artifacts.Store, provider llm.Provider, model string, logger *zap.Logger) *Toolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolset{
		store:    store,
		provider: provider,
		model:    model,
		client:   &http.Client{Timeout: 2 * time.Minute},
		logger:   logger,
	}
}

// RegisterTools registers the download and file tools on the registry.
func (t *Toolset) RegisterTools(reg *tools.Registry) error {
	entries := []struct {
		name string
		meta tools.Metadata
		fn   tools.ToolFunc
	}{
		{
			name: "download_pdf",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "download_pdf",
					Description: "Download a PDF file from a URL into the artifacts directory.",
					Parameters: llm.NewObjectSchema().
						AddProperty("url", llm.NewStringSchema("URL of the PDF")).
						AddProperty("filename", llm.NewStringSchema("file name to save as, default derived from the URL")).
						AddRequired("url"),
				},
				Class:   tools.ClassDownload,
				Timeout: 2 * time.Minute,
			},
			fn: t.downloadPDF,
		},
		{
			name: "pdf_extract_text",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "pdf_extract_text",
					Description: "Extract text from a downloaded PDF, optionally from a single page.",
					Parameters: llm.NewObjectSchema().
						AddProperty("pdf_path", llm.NewStringSchema("path of the downloaded PDF")).
						AddProperty("page_num", llm.NewIntegerSchema("1-based page to extract, omit for all pages")).
						AddRequired("pdf_path"),
				},
				Class:   tools.ClassPageScoped,
				Timeout: time.Minute,
			},
			fn: t.pdfExtractText,
		},
		{
			name: "pdf_extract_images",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "pdf_extract_images",
					Description: "Extract embedded images from a downloaded PDF, optionally from a single page.",
					Parameters: llm.NewObjectSchema().
						AddProperty("pdf_path", llm.NewStringSchema("path of the downloaded PDF")).
						AddProperty("page_num", llm.NewIntegerSchema("1-based page to scan, omit for all pages")).
						AddRequired("pdf_path"),
				},
				Class:   tools.ClassPageScoped,
				Timeout: 2 * time.Minute,
			},
			fn: t.pdfExtractImages,
		},
		{
			name: "save_image",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "save_image",
					Description: "Save an image artifact, optionally cropped to a region.",
					Parameters: llm.NewObjectSchema().
						AddProperty("image_path", llm.NewStringSchema("source image path")).
						AddProperty("output_name", llm.NewStringSchema("file name to save as")).
						AddProperty("x", llm.NewIntegerSchema("crop origin x")).
						AddProperty("y", llm.NewIntegerSchema("crop origin y")).
						AddProperty("width", llm.NewIntegerSchema("crop width")).
						AddProperty("height", llm.NewIntegerSchema("crop height")).
						AddRequired("image_path").
						AddRequired("output_name"),
				},
				Class: tools.ClassFile,
			},
			fn: t.saveImage,
		},
		{
			name: "write_text",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "write_text",
					Description: "Write a text file into the artifacts directory.",
					Parameters: llm.NewObjectSchema().
						AddProperty("filename", llm.NewStringSchema("file name to save as")).
						AddProperty("content", llm.NewStringSchema("text content")).
						AddRequired("filename").
						AddRequired("content"),
				},
				Class: tools.ClassFile,
			},
			fn: t.writeText,
		},
	}

	if t.provider != nil {
		entries = append(entries, struct {
			name string
			meta tools.Metadata
			fn   tools.ToolFunc
		}{
			name: "ocr_image_to_text",
			meta: tools.Metadata{
				Schema: llm.ToolSchema{
					Name:        "ocr_image_to_text",
					Description: "Read all text visible in an image.",
					Parameters: llm.NewObjectSchema().
						AddProperty("image_path", llm.NewStringSchema("path of the image")).
						AddRequired("image_path"),
				},
				Class:   tools.ClassFile,
				Timeout: 2 * time.Minute,
			},
			fn: t.ocrImage,
		})
	}

	for _, e := range entries {
		if err := reg.Register(e.name, e.fn, e.meta); err != nil {
			return err
		}
	}
	return nil
}
