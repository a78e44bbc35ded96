/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudwego/eino/callbacks"
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolActivity_StepsPerCall(t *testing.T) {
	rec := &events.Recorder{}
	a := NewToolActivity("dispatcher", rec)
	ctx := context.Background()

	a.OnStart(ctx, &callbacks.RunInfo{Name: "web_search"},
		&einotool.CallbackInput{ArgumentsInJSON: `{"query":"x"}`})
	a.OnEnd(ctx, &callbacks.RunInfo{Name: "web_search"}, &einotool.CallbackOutput{})
	a.OnStart(ctx, &callbacks.RunInfo{Name: "web_fetch"}, nil)
	a.OnError(ctx, &callbacks.RunInfo{Name: "web_fetch"}, errors.New("boom"))
	a.Close()
	a.Close()
	a.OnStart(ctx, &callbacks.RunInfo{Name: "late"}, nil)

	evs := rec.Events()
	types := make([]events.Type, len(evs))
	for i, ev := range evs {
		types[i] = ev.Type
		assert.Equal(t, a.ID(), ev.ComponentID)
	}
	assert.Equal(t, []events.Type{
		events.TypeComponentStart,
		events.TypeComponentUpdate, events.TypeComponentUpdate, events.TypeComponentUpdate,
		events.TypeComponentUpdate, events.TypeComponentUpdate, events.TypeComponentUpdate,
		events.TypeComponentEnd,
	}, types)

	assert.Equal(t, "substeps", evs[0].Component)
	assert.JSONEq(t, `{"title":"Tool activity","steps":[],"currentStep":0,"completedSteps":[]}`,
		string(evs[0].Props))

	assert.Equal(t, "append_step", evs[1].Operation)
	var step map[string]string
	require.NoError(t, json.Unmarshal(evs[1].Data, &step))
	assert.Equal(t, "web_search", step["title"])

	assert.Equal(t, "set_property", evs[2].Operation)
	assert.Equal(t, "currentStep", evs[2].Path)
	assert.Equal(t, "append", evs[3].Operation)
	assert.Equal(t, "completedSteps", evs[3].Key)
	assert.JSONEq(t, `0`, string(evs[3].Data))
	assert.JSONEq(t, `1`, string(evs[6].Data))
}

func TestToolActivity_NoToolsNoComponent(t *testing.T) {
	rec := &events.Recorder{}
	a := NewToolActivity("dispatcher", rec)
	a.Close()
	assert.Empty(t, rec.Events())
	assert.NotNil(t, NewStatusCallbackHandlers(a))
}
