package fileops

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/visionagent/tools"
)

type writeArgs struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func (t *Toolset) writeText(ctx context.Context, raw json.RawMessage) (*tools.Result, error) {
	var args writeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, tools.NewToolError(tools.ErrKindInvalidInput, "bad arguments: %v", err)
	}
	rel, err := t.store.Save(args.Filename, []byte(args.Content))
	if err != nil {
		return nil, err
	}
	return &tools.Result{Summary: fmt.Sprintf("Wrote %d bytes to %s.", len(args.Content), rel)}, nil
}
