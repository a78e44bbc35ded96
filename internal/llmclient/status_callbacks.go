/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

package llmclient

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	ub "github.com/cloudwego/eino/utils/callbacks"
	"github.com/mikeb26/chorus/internal/blocks"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/rs/zerolog/log"
)

const toolActivityTitle = "Tool activity"

// ToolActivity mirrors tool callbacks onto a response as one live substeps
// component: a step per tool call, marked complete when the call returns.
// The component is only started once the first tool runs.
type ToolActivity struct {
	source string
	sink   events.Sink
	id     string

	mu      sync.Mutex
	started bool
	ended   bool
	steps   int
	running []int
}

func NewToolActivity(source string, sink events.Sink) *ToolActivity {
	return &ToolActivity{
		source: source,
		sink:   sink,
		id:     blocks.NewID("tools"),
	}
}

// ID is the component id the activity is reported under.
func (a *ToolActivity) ID() string {
	return a.id
}

func (a *ToolActivity) OnStart(
	ctx context.Context,
	info *callbacks.RunInfo,
	input *tool.CallbackInput,
) context.Context {
	name := getRunName("tool", info)
	args := ""
	if input != nil {
		args = summarizeText(input.ArgumentsInJSON)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return ctx
	}

	if !a.started {
		a.started = true
		a.send(events.ComponentStart(a.source, a.id, string(blocks.TypeSubsteps),
			&blocks.SubstepsProps{Title: toolActivityTitle,
				Steps: []blocks.Step{}, CompletedSteps: []int{}}))
	}

	idx := a.steps
	a.steps++
	a.running = append(a.running, idx)

	a.send(events.ComponentUpdate(a.source, a.id, "append_step",
		blocks.Step{Title: name, Description: args}))
	ev, err := events.ComponentUpdate(a.source, a.id, "set_property", idx)
	ev.Path = "currentStep"
	a.send(ev, err)

	return ctx
}

func (a *ToolActivity) OnEnd(
	ctx context.Context,
	info *callbacks.RunInfo,
	output *tool.CallbackOutput,
) context.Context {
	a.complete()
	return ctx
}

func (a *ToolActivity) OnEndWithStreamOutput(
	ctx context.Context,
	info *callbacks.RunInfo,
	output *schema.StreamReader[*tool.CallbackOutput],
) context.Context {
	if output != nil {
		output.Close()
	}
	a.complete()
	return ctx
}

func (a *ToolActivity) OnError(
	ctx context.Context,
	info *callbacks.RunInfo,
	err error,
) context.Context {
	a.complete()
	return ctx
}

func (a *ToolActivity) complete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended || len(a.running) == 0 {
		return
	}

	idx := a.running[len(a.running)-1]
	a.running = a.running[:len(a.running)-1]

	ev, err := events.ComponentUpdate(a.source, a.id, "append", idx)
	ev.Key = "completedSteps"
	a.send(ev, err)
}

// Close ends the component, if it was ever started. Later callbacks are
// ignored.
func (a *ToolActivity) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return
	}
	a.ended = true
	if !a.started {
		return
	}
	a.send(events.ComponentEnd(a.source, a.id, nil))
}

func (a *ToolActivity) send(ev events.Event, err error) {
	if err != nil {
		log.Warn().Err(err).Str("component", a.id).
			Msg("dropping tool activity update")
		return
	}
	a.sink.Send(ev)
}

func newStatusToolHandler(a *ToolActivity) *ub.ToolCallbackHandler {
	return &ub.ToolCallbackHandler{
		OnStart:               a.OnStart,
		OnEnd:                 a.OnEnd,
		OnEndWithStreamOutput: a.OnEndWithStreamOutput,
		OnError:               a.OnError,
	}
}

// NewStatusCallbackHandlers builds the callbacks.Handler that reports tool
// activity for one response.
func NewStatusCallbackHandlers(a *ToolActivity) callbacks.Handler {
	helper := ub.NewHandlerHelper().
		Tool(newStatusToolHandler(a))

	return helper.Handler()
}
