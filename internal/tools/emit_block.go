/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/mikeb26/chorus/internal/blocks"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/mikeb26/chorus/internal/types"
)

// EmitBlockTool lets the dispatcher put structured blocks on the response
// channel. It is bound to one response.
type EmitBlockTool struct {
	source  string
	sink    events.Sink
	tracker *blocks.Tracker
}

type EmitBlockReq struct {
	ID     string         `json:"id" jsonschema:"description=Stable block id; reuse it to update the same widget"`
	Type   string         `json:"type" jsonschema:"description=Block type: text, code, component, substeps, alert, table, quote, progress, accordion, badge or separator"`
	Status string         `json:"status" jsonschema:"description=Lifecycle status: init, running, update or finished. Non-text blocks must start with init"`
	Props  map[string]any `json:"props,omitempty" jsonschema:"description=Type-specific attributes, e.g. content, language, headers, rows, items, steps, value, max, variant, title"`
}

type EmitBlockResp struct {
	OK    bool   `json:"ok" jsonschema:"description=Whether the block was emitted"`
	Error  string `json:"error,omitempty" jsonschema:"description=Why the block was rejected"`
	Status string `json:"status,omitempty" jsonschema:"description=The block's lifecycle status after this call"`
}

func (t EmitBlockTool) GetOp() types.ToolCallOp {
	return types.EmitBlock
}

func NewEmitBlockTool(source string, sink events.Sink,
	tracker *blocks.Tracker) *EmitBlockTool {

	if tracker == nil {
		tracker = blocks.NewTracker()
	}
	return &EmitBlockTool{source: source, sink: sink, tracker: tracker}
}

func (t EmitBlockTool) Define() types.LlmTool {
	ret, err := utils.InferTool(string(t.GetOp()),
		"Display a structured UI block (table, code, alert, progress, substeps, accordion, ...) to the user. Emit init first, then running/update, then finished, all with the same id.",
		t.Invoke)
	if err != nil {
		panic(err)
	}

	return ret
}

func (t EmitBlockTool) Invoke(ctx context.Context,
	req *EmitBlockReq) (*EmitBlockResp, error) {

	ret := &EmitBlockResp{}

	b, err := req.toBlock()
	if err != nil {
		ret.Error = err.Error()
		return ret, nil
	}
	defer func() {
		if st, ok := t.tracker.Status(b.ID); ok {
			ret.Status = string(st)
		}
	}()
	if err := t.tracker.Admit(b); err != nil {
		ret.Error = err.Error()
		return ret, nil
	}

	t.sink.Send(events.BlockEvent(t.source, b))
	ret.OK = true

	return ret, nil
}

func (req *EmitBlockReq) toBlock() (*blocks.Block, error) {
	flat := make(map[string]any, len(req.Props)+3)
	for k, v := range req.Props {
		flat[k] = v
	}
	flat["id"] = req.ID
	if req.Type != "" {
		flat["type"] = req.Type
	}
	flat["status"] = req.Status

	data, err := json.Marshal(flat)
	if err != nil {
		return nil, err
	}
	var b blocks.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("invalid block: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid block: %w", err)
	}

	return &b, nil
}
