/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package composer runs one chat turn: the dispatcher's tool loop, the
// specialists it delegates to, and the single ordered event stream all of
// them write to.
package composer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/mikeb26/chorus/internal/blocks"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/mikeb26/chorus/internal/llmclient"
	"github.com/mikeb26/chorus/internal/prompts"
	"github.com/mikeb26/chorus/internal/quota"
	"github.com/mikeb26/chorus/internal/stream"
	"github.com/mikeb26/chorus/internal/tools"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxSteps = 15
	// DispatcherSource tags the events the dispatcher produces itself.
	DispatcherSource = "dispatcher"
)

var ErrComposerClosed = errors.New("composer closed")

type State int32

const (
	StateCreated State = iota
	StateRunning
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Agents are the models one turn runs on. A specialist without a Model is
// not offered to the dispatcher.
type Agents struct {
	Dispatcher        types.LlmChatModel
	DispatcherOptions []model.Option
	Reasoner          llmclient.Specialist
	Executor          llmclient.Specialist
}

type Config struct {
	// Persona replaces the default dispatcher system prompt when set.
	Persona  string
	MaxSteps int
	Search   tools.SearchConfig
	Fetch    tools.FetchConfig
	// Counter is the process-wide search quota.
	Counter *quota.Counter
	// Handlers receive model and tool callbacks (e.g. the audit log) in
	// addition to the tool activity component.
	Handlers []callbacks.Handler
}

// Composer owns the outbound channel of one response. It is used for a
// single Run.
type Composer struct {
	agents Agents
	cfg    Config

	ch       *stream.Channel
	tracker  *blocks.Tracker
	activity *llmclient.ToolActivity
	state    atomic.Int32
}

// New prepares a turn whose events are written to w. ctx bounds the
// channel: once it is done, writes are dropped.
func New(ctx context.Context, agents Agents, cfg Config,
	w stream.Writer) *Composer {

	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Persona == "" {
		cfg.Persona = prompts.DispatcherMsg
	}
	if cfg.Counter == nil {
		cfg.Counter = quota.NewCounter(quota.DefaultMonthlyLimit)
	}

	c := &Composer{
		agents:  agents,
		cfg:     cfg,
		ch:      stream.NewChannel(ctx, w),
		tracker: blocks.NewTracker(),
	}
	c.activity = llmclient.NewToolActivity(DispatcherSource, c.ch)
	c.state.Store(int32(StateCreated))

	return c
}

func (c *Composer) State() State {
	return State(c.state.Load())
}

// SendEvent writes ev onto the response in arrival order. It fails once
// the turn is over or the client has gone away.
func (c *Composer) SendEvent(ev events.Event) error {
	if st := c.State(); st == StateClosed || st == StateErrored ||
		c.ch.Closed() {
		return ErrComposerClosed
	}
	c.ch.Send(ev)
	return nil
}

// Err returns the error the response ended with, if any.
func (c *Composer) Err() error {
	return c.ch.Err()
}

func (c *Composer) capabilities() []types.Tool {
	ret := []types.Tool{
		tools.NewWebSearchTool(c.cfg.Search, c.cfg.Counter),
		tools.NewWebFetchTool(c.cfg.Fetch),
		tools.NewEmitBlockTool(DispatcherSource, c.ch, c.tracker),
	}
	if c.agents.Reasoner.Model != nil {
		ret = append(ret, llmclient.NewDeepReasoningTool(c.agents.Reasoner,
			c.ch, c.tracker))
	}
	if c.agents.Executor.Model != nil {
		ret = append(ret, llmclient.NewPreciseExecutionTool(c.agents.Executor,
			c.ch, c.tracker))
	}

	return ret
}

// Run executes the turn that follows history and closes the channel. On
// failure the client has already been sent a single error event.
func (c *Composer) Run(ctx context.Context,
	history []types.ChatMessage) (res *Result, err error) {

	if !c.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return nil, ErrComposerClosed
	}

	ctx, invID := llmclient.EnsureInvocationID(ctx)
	logger := log.With().Str("invocation", invID).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("dispatcher panicked")
			err = fmt.Errorf("dispatcher panicked: %v", r)
			res = nil
		}
		c.activity.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("turn failed")
			c.ch.Send(events.ErrorEvent(DispatcherSource, err))
			c.state.Store(int32(StateErrored))
			c.ch.Close(err)
			return
		}
		c.state.Store(int32(StateClosed))
		c.ch.Close(nil)
	}()

	res, err = c.loop(ctx, history)
	if err != nil {
		return nil, err
	}

	c.activity.Close()
	if res.Text != "" {
		c.ch.Send(events.BlockEvent(DispatcherSource,
			blocks.New(blocks.NewID("answer"), blocks.StatusFinished,
				&blocks.TextProps{Content: res.Text})))
	}
	c.ch.Send(events.Event{Type: events.TypeFinish, Source: DispatcherSource,
		FinishReason: res.FinishReason})
	logger.Debug().Int("steps", res.Steps).Str("finish", res.FinishReason).
		Uint64("events", c.ch.Seq()).Msg("turn finished")

	return res, nil
}

func (c *Composer) loop(ctx context.Context,
	history []types.ChatMessage) (*Result, error) {

	capTools := tools.Define(c.capabilities()...)
	infos := make([]*schema.ToolInfo, 0, len(capTools))
	runnable := make([]tool.BaseTool, 0, len(capTools))
	for _, t := range capTools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("describing tools: %w", err)
		}
		infos = append(infos, info)
		runnable = append(runnable, t)
	}

	dispatcher, err := c.agents.Dispatcher.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("binding tools: %w", err)
	}
	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               runnable,
		UnknownToolsHandler: c.unknownTool,
		ExecuteSequentially: true,
		ToolCallMiddlewares: []compose.ToolMiddleware{
			{Invokable: c.reportToolCall},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("binding tools: %w", err)
	}

	handlers := append([]callbacks.Handler{
		llmclient.NewStatusCallbackHandlers(c.activity)}, c.cfg.Handlers...)
	tctx := callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      DispatcherSource,
		Component: compose.ComponentOfToolsNode,
	}, handlers...)

	msgs := ToLlmMessages(c.cfg.Persona, history)
	res := &Result{FinishReason: FinishStop}
	// the step cap ends the turn normally and keeps what was produced
	for res.Steps < c.cfg.MaxSteps {
		res.Steps++

		msg, err := c.step(ctx, dispatcher, msgs)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
		res.Reasoning += msg.ReasoningContent
		if msg.Content != "" {
			res.Text = msg.Content
		}
		if len(msg.ToolCalls) == 0 {
			return res, nil
		}

		results, err := toolsNode.Invoke(tctx, msg)
		if err != nil {
			return nil, fmt.Errorf("running tools: %w", err)
		}
		for i, tc := range msg.ToolCalls {
			out := results[i]
			res.Invocations = append(res.Invocations, types.Part{
				Type:       types.PartToolInvocation,
				ToolName:   tc.Function.Name,
				ToolCallID: tc.ID,
				Args:       tc.Function.Arguments,
				Result:     out.Content,
			})
			msgs = append(msgs, out)
		}
	}
	res.FinishReason = FinishMaxSteps

	return res, nil
}

// step streams one dispatcher completion, forwarding reasoning and text as
// it arrives, and returns the assembled message.
func (c *Composer) step(ctx context.Context, m model.ToolCallingChatModel,
	msgs []*schema.Message) (*schema.Message, error) {

	mctx := callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      DispatcherSource,
		Component: components.ComponentOfChatModel,
	}, c.cfg.Handlers...)

	sr, err := m.Stream(mctx, msgs, c.agents.DispatcherOptions...)
	if err != nil {
		return nil, fmt.Errorf("dispatcher unavailable: %w", err)
	}
	defer sr.Close()

	var chunks []*schema.Message
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dispatcher stream failed: %w", err)
		}
		if chunk == nil {
			continue
		}

		if chunk.ReasoningContent != "" {
			c.ch.Send(events.Event{Type: events.TypeReasoning,
				Source: DispatcherSource, Delta: chunk.ReasoningContent})
		}
		if chunk.Content != "" {
			c.ch.Send(events.Event{Type: events.TypeTextDelta,
				Source: DispatcherSource, Delta: chunk.Content})
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	msg, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, fmt.Errorf("dispatcher stream malformed: %w", err)
	}
	if msg.Role == "" {
		msg.Role = schema.Assistant
	}

	return msg, nil
}

// reportToolCall puts each tool call and its result on the response and
// turns a failed call into an error result, so a broken tool never ends
// the turn.
func (c *Composer) reportToolCall(
	next compose.InvokableToolEndpoint) compose.InvokableToolEndpoint {

	return func(ctx context.Context,
		in *compose.ToolInput) (*compose.ToolOutput, error) {

		out := c.report(in.Name, in.CallID, in.Arguments,
			func() (string, error) {
				res, err := next(ctx, in)
				if err != nil {
					return "", err
				}
				return res.Result, nil
			})
		return &compose.ToolOutput{Result: out}, nil
	}
}

// unknownTool answers calls to tools the dispatcher was never offered.
func (c *Composer) unknownTool(ctx context.Context, name,
	args string) (string, error) {

	return c.report(name, compose.GetToolCallID(ctx), args,
		func() (string, error) {
			return "", fmt.Errorf("unknown tool %q", name)
		}), nil
}

func (c *Composer) report(name, callID, args string,
	run func() (string, error)) string {

	c.ch.Send(events.Event{Type: events.TypeToolCall, Source: DispatcherSource,
		ToolName: name, ToolCallID: callID, Args: args})

	out, err := run()
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("tool call failed")
		out = toolErrorResult(err)
	}

	c.ch.Send(events.Event{Type: events.TypeToolResult, Source: DispatcherSource,
		ToolName: name, ToolCallID: callID, Result: out})

	return out
}
