/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mikeb26/chorus/internal/blocks"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/mikeb26/chorus/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustEvent unwraps an event builder's result, failing the test on error.
func mustEvent(t *testing.T) func(events.Event, error) events.Event {
	return func(ev events.Event, err error) events.Event {
		t.Helper()
		require.NoError(t, err)
		return ev
	}
}

func blockEvent(t *testing.T, raw string) events.Event {
	t.Helper()
	var b blocks.Block
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return events.BlockEvent("dispatcher", &b)
}

func TestConsumer_FinishedIsImmutable(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(blockEvent(t, `{"id":"p","type":"progress","status":"init"}`))
	c.Send(blockEvent(t, `{"id":"p","type":"progress","status":"running","value":30}`))
	c.Send(blockEvent(t, `{"id":"p","type":"progress","status":"finished","value":50}`))
	c.Send(blockEvent(t, `{"id":"p","type":"progress","status":"running","value":80}`))
	c.Send(mustEvent(t)(events.ComponentUpdate("dispatcher", "p", "set_property", 90)))

	st, ok := c.Component("p")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, 50.0, st.Props.(*blocks.ProgressProps).Value)
	assert.Equal(t, []string{"p"}, c.Snapshot().Order())
}

func TestConsumer_UpdateMissingIsNoop(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(mustEvent(t)(events.ComponentUpdate("dispatcher", "ghost",
		"append_row", []string{"a"})))

	snap := c.Snapshot()
	assert.Empty(t, snap.Entries)
	assert.Empty(t, snap.Components)
	require.Len(t, snap.Warnings, 1)
	assert.Contains(t, snap.Warnings[0], "ghost")
}

func TestConsumer_TableDefaultsAndDoubleStart(t *testing.T) {
	c := NewConsumer(nil)
	start := mustEvent(t)(events.ComponentStart("dispatcher", "t", "Table", nil))
	c.Send(start)
	c.Send(start)

	snap := c.Snapshot()
	assert.Equal(t, []string{"t"}, snap.Order())
	st := snap.Components["t"]
	assert.Equal(t, blocks.TypeTable, st.Type)
	assert.Equal(t, StatusInitializing, st.Status)
	assert.Equal(t, &blocks.TableProps{Headers: []string{}, Rows: [][]blocks.Cell{}},
		st.Props)
}

func TestConsumer_ComponentLifecycle(t *testing.T) {
	changes := 0
	c := NewConsumer(func() { changes++ })

	start, err := events.ComponentStart("dispatcher", "t", "table",
		map[string]any{"headers": []string{"name"}})
	require.NoError(t, err)
	start.EstimatedProps = json.RawMessage(`{"caption":"loading"}`)
	c.Send(start)

	c.Send(mustEvent(t)(events.ComponentUpdate("dispatcher", "t", "append_row",
		[]any{"A"})))
	st, _ := c.Component("t")
	assert.Equal(t, StatusStreaming, st.Status)
	assert.Equal(t, &blocks.TableProps{Headers: []string{"name"},
		Rows: [][]blocks.Cell{{"A"}}, Caption: "loading"}, st.Props)

	c.Send(mustEvent(t)(events.ComponentEnd("dispatcher", "t",
		map[string]any{"headers": []string{"name"}, "rows": [][]string{{"B"}}})))
	st, _ = c.Component("t")
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, &blocks.TableProps{Headers: []string{"name"},
		Rows: [][]blocks.Cell{{"B"}}}, st.Props)

	c.Send(mustEvent(t)(events.ComponentStart("dispatcher", "t", "table", nil)))
	st, _ = c.Component("t")
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, 4, changes)
}

func TestConsumer_UnknownTypeFallback(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(blockEvent(t, `{"id":"u","type":"hologram","status":"finished","beam":3}`))

	st, ok := c.Component("u")
	require.True(t, ok)
	assert.Equal(t, blocks.TypeUnknown, st.Type)
	assert.Equal(t, StatusCompleted, st.Status)

	out := NewRenderer(80).Component(st)
	assert.Contains(t, out, `unknown block "hologram"`)
	assert.Contains(t, out, "beam: 3")
}

func TestConsumer_BadUpdateMarksOnlyThatComponent(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(mustEvent(t)(events.ComponentStart("dispatcher", "a", "card", nil)))
	c.Send(mustEvent(t)(events.ComponentStart("dispatcher", "b", "table", nil)))

	c.Send(mustEvent(t)(events.ComponentUpdate("dispatcher", "a", "explode", 1)))
	c.Send(mustEvent(t)(events.ComponentUpdate("dispatcher", "b", "append_row",
		[]string{"ok"})))

	a, _ := c.Component("a")
	assert.Equal(t, StatusError, a.Status)
	assert.Contains(t, a.Error, "unknown update operation")

	b, _ := c.Component("b")
	assert.Equal(t, StatusStreaming, b.Status)
}

func TestConsumer_GoodUpdateClearsError(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(mustEvent(t)(events.ComponentStart("dispatcher", "t", "table", nil)))
	c.Send(mustEvent(t)(events.ComponentUpdate("dispatcher", "t", "explode", 1)))

	st, _ := c.Component("t")
	require.Equal(t, StatusError, st.Status)
	require.NotEmpty(t, st.Error)

	c.Send(mustEvent(t)(events.ComponentUpdate("dispatcher", "t", "append_row",
		[]string{"ok"})))
	st, _ = c.Component("t")
	assert.Equal(t, StatusStreaming, st.Status)
	assert.Empty(t, st.Error)

	c.Send(mustEvent(t)(events.ComponentUpdate("dispatcher", "t", "explode", 1)))
	c.Send(mustEvent(t)(events.ComponentEnd("dispatcher", "t", nil)))
	st, _ = c.Component("t")
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Empty(t, st.Error)
}

func TestConsumer_MalformedBlocksOverTheWire(t *testing.T) {
	wire := "id: 1\nevent: block\ndata: " +
		`{"type":"block","source":"dispatcher","block":{"id":"t1","type":"table","status":"init"}}` +
		"\n\nid: 2\nevent: block\ndata: " +
		`{"type":"block","source":"dispatcher","block":{"id":"t1","type":"table","status":"running","rows":"oops"}}` +
		"\n\nid: 3\nevent: block\ndata: " +
		`{"type":"block","source":"dispatcher","block":{"id":"t2","type":"progress","status":"bogus"}}` +
		"\n\n"

	c := NewConsumer(nil)
	require.NoError(t, stream.Decode(context.Background(),
		strings.NewReader(wire), c))

	t1, ok := c.Component("t1")
	require.True(t, ok)
	assert.Equal(t, StatusError, t1.Status)
	assert.Contains(t, t1.Error, "malformed block event")

	_, ok = c.Component("t2")
	assert.False(t, ok)
	snap := c.Snapshot()
	require.Len(t, snap.Warnings, 1)
	assert.Contains(t, snap.Warnings[0], "unknown block status")
}

func TestConsumer_TypeMismatchRejected(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(blockEvent(t, `{"id":"x","type":"progress","status":"init"}`))
	c.Send(blockEvent(t, `{"id":"x","type":"table","status":"running"}`))

	st, _ := c.Component("x")
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, blocks.TypeProgress, st.Type)
}

func TestConsumer_UpdateByIDOnly(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(blockEvent(t, `{"id":"p","type":"progress","status":"init","label":"x"}`))
	c.Send(blockEvent(t, `{"id":"p","status":"update","value":10}`))

	st, _ := c.Component("p")
	assert.Equal(t, StatusStreaming, st.Status)
	assert.Equal(t, &blocks.ProgressProps{Value: 10, Max: 100, Label: "x"}, st.Props)
}

func TestConsumer_TextFragments(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(events.Event{Type: events.TypeTextDelta, Source: "dispatcher", Delta: "Let "})
	c.Send(events.Event{Type: events.TypeTextDelta, Source: "dispatcher", Delta: "me see."})
	c.Send(events.Event{Type: events.TypeReasoning, Source: "reasoner", Delta: "hmm"})
	c.Send(events.Event{Type: events.TypeReasoning, Source: "reasoner", Delta: "...",
		Append: true})
	c.Send(events.Event{Type: events.TypeText, Source: "reasoner", Delta: "A"})
	c.Send(events.Event{Type: events.TypeText, Source: "reasoner", Delta: " wins",
		Append: true})
	c.Send(events.Event{Type: events.TypeText, Source: "reasoner", Delta: "New"})
	c.Send(events.Event{Type: events.TypeFinish, FinishReason: "stop"})

	snap := c.Snapshot()
	assert.Equal(t, []TextFragment{
		{Source: "dispatcher", Kind: FragmentText, Text: "Let me see."},
		{Source: "reasoner", Kind: FragmentReasoning, Text: "hmm..."},
		{Source: "reasoner", Kind: FragmentText, Text: "A wins"},
		{Source: "reasoner", Kind: FragmentText, Text: "New"},
	}, snap.Fragments)
	assert.True(t, snap.Finished)
	assert.Equal(t, "stop", snap.FinishReason)
}

func TestConsumer_StreamError(t *testing.T) {
	c := NewConsumer(nil)
	c.Send(events.Event{Type: events.TypeError, Error: "dispatcher unavailable"})

	snap := c.Snapshot()
	assert.True(t, snap.Finished)
	assert.Equal(t, "dispatcher unavailable", snap.Error)
}
