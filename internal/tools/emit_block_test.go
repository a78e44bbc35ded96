/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package tools

import (
	"context"
	"testing"

	"github.com/mikeb26/chorus/internal/blocks"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitBlock_Lifecycle(t *testing.T) {
	rec := &events.Recorder{}
	tool := NewEmitBlockTool("dispatcher", rec, nil)
	ctx := context.Background()

	resp, err := tool.Invoke(ctx, &EmitBlockReq{ID: "tb", Type: "table", Status: "finished",
		Props: map[string]any{"headers": []any{"a"}}})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "init")
	assert.Empty(t, resp.Status)

	resp, err = tool.Invoke(ctx, &EmitBlockReq{ID: "tb", Type: "Table", Status: "init",
		Props: map[string]any{"headers": []any{"a", "b"}}})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "init", resp.Status)

	resp, err = tool.Invoke(ctx, &EmitBlockReq{ID: "tb", Status: "update",
		Props: map[string]any{"caption": "x"}})
	require.NoError(t, err)
	assert.True(t, resp.OK, resp.Error)
	assert.Equal(t, "running", resp.Status)

	resp, err = tool.Invoke(ctx, &EmitBlockReq{ID: "tb", Status: "finished",
		Props: map[string]any{"rows": []any{[]any{"1", 2}}}})
	require.NoError(t, err)
	assert.True(t, resp.OK, resp.Error)
	assert.Equal(t, "finished", resp.Status)

	resp, err = tool.Invoke(ctx, &EmitBlockReq{ID: "tb", Status: "running"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "finished", resp.Status)

	evs := rec.Events()
	require.Len(t, evs, 3)
	assert.Equal(t, events.TypeBlock, evs[0].Type)
	assert.Equal(t, "dispatcher", evs[0].Source)
	tp, ok := evs[0].Block.Props.(*blocks.TableProps)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tp.Headers)
	assert.Nil(t, evs[2].Block.Props)
	assert.Equal(t, blocks.StatusFinished, evs[2].Block.Status)
}

func TestEmitBlock_TextMayFinishDirectly(t *testing.T) {
	rec := &events.Recorder{}
	tool := NewEmitBlockTool("dispatcher", rec, nil)

	resp, err := tool.Invoke(context.Background(), &EmitBlockReq{ID: "t", Type: "text",
		Props: map[string]any{"content": "hi"}})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, &blocks.TextProps{Content: "hi"}, rec.Events()[0].Block.Props)

	resp, err = tool.Invoke(context.Background(), &EmitBlockReq{Type: "text"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
}
