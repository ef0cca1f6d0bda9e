package fileops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/BaSui01/visionagent/llm"
	"github.com/BaSui01/visionagent/tools"
)

type saveImageArgs struct {
	ImagePath  string `json:"image_path"`
	OutputName string `json:"output_name"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

func (t *Toolset) saveImage(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args saveImageArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}

	abs, err := t.store.ResolveInput(args.ImagePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "open image: %v", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "decode image: %v", err)
	}

	out := src
	cropped := false
	if args.Width > 0 && args.Height > 0 {
		crop := image.Rect(args.X, args.Y, args.X+args.Width, args.Y+args.Height).
			Intersect(src.Bounds())
		if crop.Empty() {
			return nil, tools.NewToolError(tools.ErrKindInvalidInput,
				"crop region (%d,%d %dx%d) is outside the image bounds %v",
				args.X, args.Y, args.Width, args.Height, src.Bounds())
		}
		dst := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
		draw.Draw(dst, dst.Bounds(), src, crop.Min, draw.Src)
		out = dst
		cropped = true
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "encode image: %v", err)
	}

	name := args.OutputName
	if !strings.HasSuffix(strings.ToLower(name), ".png") {
		name += ".png"
	}
	rel, err := t.store.Save(name, buf.Bytes())
	if err != nil {
		return nil, err
	}

	action := "Saved"
	if cropped {
		action = fmt.Sprintf("Cropped %dx%d region and saved", out.Bounds().Dx(), out.Bounds().Dy())
	}
	return &tools.Result{Summary: fmt.Sprintf("%s image to %s.", action, rel)}, nil
}

type ocrArgs struct {
	ImagePath string `json:"image_path"`
}

// ocrImage reads an image's text through the vision model.
func (t *Toolset) ocrImage(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args ocrArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}

	abs, err := t.store.ResolveInput(args.ImagePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "read image: %v", err)
	}

	msg := llm.NewUserMessage("Transcribe all text visible in this image. " +
		"Return only the transcribed text, preserving line breaks.").
		WithImages([]llm.ImageContent{{Type: "base64", Data: base64.StdEncoding.EncodeToString(data)}})

	resp, err := t.provider.Completion(ctx, &llm.ChatRequest{
		Model:    t.model,
		Messages: []llm.Message{msg},
	})
	if err != nil {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "ocr request: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, tools.NewToolError(tools.ErrKindExecutionFailed, "ocr returned no content")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return &tools.Result{Summary: "No readable text found in the image."}, nil
	}
	return &tools.Result{Summary: text}, nil
}
