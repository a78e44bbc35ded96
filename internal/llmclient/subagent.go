/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/mikeb26/chorus/internal/blocks"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/rs/zerolog/log"
)

// Specialist describes an agent the dispatcher can delegate to. Specialists
// run without tools, so delegation is at most one level deep.
type Specialist struct {
	// Name tags the specialist's events ("reasoner").
	Name string
	// Title is the human-readable name used in notifications.
	Title   string
	Persona string
	Model   types.LlmChatModel
	Options []model.Option
}

type SubAgentResp struct {
	Analysis       string         `json:"analysis,omitempty" jsonschema:"description=The specialist's answer"`
	Result         string         `json:"result,omitempty" jsonschema:"description=The specialist's answer"`
	Reasoning      string         `json:"reasoning" jsonschema:"description=The specialist's reasoning, when the model exposes it"`
	StructuredData map[string]any `json:"structured_data,omitempty" jsonschema:"description=Structured data extracted from a fenced json block in the answer"`
	Success        bool           `json:"success" jsonschema:"description=Whether the specialist completed"`
}

type DeepReasoningReq struct {
	Question string `json:"question" jsonschema:"description=The question that needs careful multi-step analysis"`
	Context  string `json:"context,omitempty" jsonschema:"description=Background the specialist should take into account (optional)"`
}

type PreciseExecutionReq struct {
	Task         string `json:"task" jsonschema:"description=The exact task to carry out"`
	Requirements string `json:"requirements,omitempty" jsonschema:"description=Constraints the output must satisfy (optional)"`
}

// bridge runs one specialist call and mirrors its stream onto a response's
// event sink as it arrives.
type bridge struct {
	spec    Specialist
	sink    events.Sink
	tracker *blocks.Tracker
}

type DeepReasoningTool struct {
	bridge
}

type PreciseExecutionTool struct {
	bridge
}

func newBridge(spec Specialist, sink events.Sink,
	tracker *blocks.Tracker) bridge {

	if tracker == nil {
		tracker = blocks.NewTracker()
	}
	return bridge{spec: spec, sink: sink, tracker: tracker}
}

func NewDeepReasoningTool(spec Specialist, sink events.Sink,
	tracker *blocks.Tracker) *DeepReasoningTool {

	return &DeepReasoningTool{bridge: newBridge(spec, sink, tracker)}
}

func NewPreciseExecutionTool(spec Specialist, sink events.Sink,
	tracker *blocks.Tracker) *PreciseExecutionTool {

	return &PreciseExecutionTool{bridge: newBridge(spec, sink, tracker)}
}

func (t DeepReasoningTool) GetOp() types.ToolCallOp {
	return types.DeepReasoning
}

func (t PreciseExecutionTool) GetOp() types.ToolCallOp {
	return types.PreciseExecution
}

func (t DeepReasoningTool) Define() types.LlmTool {
	const desc = "Delegate a question that needs careful, multi-step analysis, comparison or planning to the reasoning specialist. Its reasoning streams to the user live; the final analysis is returned to you."
	ret, err := utils.InferTool(string(t.GetOp()), desc, t.Invoke)
	if err != nil {
		panic(err)
	}

	return ret
}

func (t PreciseExecutionTool) Define() types.LlmTool {
	const desc = "Delegate a precise, well specified task (calculation, code, data transformation, exact formatting) to the execution specialist. Its output streams to the user live; the final result is returned to you."
	ret, err := utils.InferTool(string(t.GetOp()), desc, t.Invoke)
	if err != nil {
		panic(err)
	}

	return ret
}

func (t DeepReasoningTool) Invoke(ctx context.Context,
	req *DeepReasoningReq) (*SubAgentResp, error) {

	prompt := req.Question
	if strings.TrimSpace(req.Context) != "" {
		prompt = fmt.Sprintf("%v\n\nContext:\n%v", req.Question, req.Context)
	}

	ret := &SubAgentResp{}
	answer, err := t.run(ctx, prompt, ret)
	ret.Analysis = answer
	if err != nil {
		ret.Analysis = err.Error()
	}

	return ret, nil
}

func (t PreciseExecutionTool) Invoke(ctx context.Context,
	req *PreciseExecutionReq) (*SubAgentResp, error) {

	prompt := req.Task
	if strings.TrimSpace(req.Requirements) != "" {
		prompt = fmt.Sprintf("%v\n\nRequirements:\n%v", req.Task,
			req.Requirements)
	}

	ret := &SubAgentResp{}
	answer, err := t.run(ctx, prompt, ret)
	ret.Result = answer
	if err != nil {
		ret.Result = err.Error()
	}

	return ret, nil
}

// run streams the specialist's answer and fills in everything but the
// answer field itself, which differs per tool. The returned error has
// already been reported to the user.
func (b bridge) run(ctx context.Context, prompt string,
	ret *SubAgentResp) (string, error) {

	ctx, invID := EnsureInvocationID(ctx)
	logger := log.With().Str("invocation", invID).Str("agent", b.spec.Name).
		Logger()

	if strings.TrimSpace(prompt) == "" {
		err := errors.New("an empty task was delegated")
		b.notify(blocks.AlertProps{Variant: "error",
			Title: b.spec.Title + " failed", Content: err.Error()})
		return "", err
	}

	logger.Debug().Str("task", summarizeText(prompt)).Msg("delegating")

	answer, reasoning, err := b.stream(ctx, prompt)
	if err != nil {
		logger.Warn().Err(err).Msg("specialist failed")
		b.notify(blocks.AlertProps{Variant: "error",
			Title: b.spec.Title + " failed", Content: err.Error()})
		return "", err
	}

	b.notify(blocks.AlertProps{Variant: "success", Title: b.spec.Title,
		Content: b.spec.Title + " finished"})
	logger.Debug().Int("answer_len", len(answer)).Msg("specialist finished")

	ret.Reasoning = reasoning
	ret.StructuredData = extractStructuredData(answer)
	ret.Success = true

	return answer, nil
}

func (b bridge) stream(ctx context.Context,
	prompt string) (string, string, error) {

	msgs := []*schema.Message{
		schema.SystemMessage(b.spec.Persona),
		schema.UserMessage(prompt),
	}

	sr, err := b.spec.Model.Stream(ctx, msgs, b.spec.Options...)
	if err != nil {
		return "", "", fmt.Errorf("%v unavailable: %w", b.spec.Title, err)
	}
	defer sr.Close()

	var answerSb, reasoningSb strings.Builder
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("%v stream failed: %w", b.spec.Title, err)
		}
		if chunk == nil {
			continue
		}

		if chunk.ReasoningContent != "" {
			b.sink.Send(events.Event{
				Type:   events.TypeReasoning,
				Source: b.spec.Name,
				Delta:  chunk.ReasoningContent,
				Append: reasoningSb.Len() > 0,
			})
			reasoningSb.WriteString(chunk.ReasoningContent)
		}
		if chunk.Content != "" {
			b.sink.Send(events.Event{
				Type:   events.TypeText,
				Source: b.spec.Name,
				Delta:  chunk.Content,
				Append: answerSb.Len() > 0,
			})
			answerSb.WriteString(chunk.Content)
		}
	}

	return answerSb.String(), reasoningSb.String(), nil
}

// notify puts a completion or failure alert on the channel, init first as
// every non-text block must.
func (b bridge) notify(props blocks.AlertProps) {
	id := blocks.NewID(b.spec.Name)

	skeleton := blocks.New(id, blocks.StatusInit, &blocks.AlertProps{
		Variant: props.Variant, Title: props.Title})
	final := blocks.New(id, blocks.StatusFinished, &props)
	for _, blk := range []*blocks.Block{skeleton, final} {
		if err := b.tracker.Admit(blk); err != nil {
			log.Warn().Err(err).Str("agent", b.spec.Name).
				Msg("dropping notification")
			return
		}
		b.sink.Send(events.BlockEvent(b.spec.Name, blk))
	}
}

var fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")

// extractStructuredData returns the first fenced json object in text.
func extractStructuredData(text string) map[string]any {
	for _, m := range fencedJSONPattern.FindAllStringSubmatch(text, -1) {
		var data map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &data); err == nil {
			return data
		}
	}
	return nil
}
