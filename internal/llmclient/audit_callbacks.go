/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

package llmclient

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	ub "github.com/cloudwego/eino/utils/callbacks"
	"github.com/rs/zerolog"
)

// summarizeText returns a truncated version of s for logging purposes.
func summarizeText(s string) string {
	const maxLen = 200
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// summarizeMessages produces a compact textual representation of a slice of
// schema.Message values suitable for audit logging.
func summarizeMessages(msgs []*schema.Message) string {
	if len(msgs) == 0 {
		return "<no-messages>"
	}

	// Only summarize the last message in the dialogue for logging.
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}

		// If the last non-nil message is a tool message, this callback
		// invocation is just the agent sending tool responses back to the
		// model. In that case, avoid logging the raw JSON payload and use a
		// compact sentinel instead.
		if m.Role == schema.Tool {
			return "<tool responses>"
		}

		var b strings.Builder
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(summarizeText(m.Content))
		return b.String()
	}

	return "<no-messages>"
}

// withInvocation adds the invocation ID stored in ctx, if any, to a log
// event.
func withInvocation(ctx context.Context, ev *zerolog.Event) *zerolog.Event {
	if id, ok := GetInvocationID(ctx); ok {
		return ev.Str("invocation", id)
	}
	return ev
}

// getRunName resolves the effective name for a callback run, falling back to
// defaultName when the callbacks.RunInfo is nil or has an empty Name.
func getRunName(defaultName string, info *callbacks.RunInfo) string {
	if info != nil && info.Name != "" {
		return info.Name
	}
	return defaultName
}

type auditModelCallbacks struct {
	logger zerolog.Logger
}

func (h *auditModelCallbacks) OnStart(
	ctx context.Context,
	info *callbacks.RunInfo,
	input *model.CallbackInput,
) context.Context {
	name := getRunName("chat_model", info)

	argsSummary := "<nil>"
	if input != nil {
		argsSummary = summarizeMessages(input.Messages)
	}

	withInvocation(ctx, h.logger.Info()).Str("model", name).
		Str("input", argsSummary).Msg("model start")
	return ctx
}

func (h *auditModelCallbacks) OnEnd(
	ctx context.Context,
	info *callbacks.RunInfo,
	output *model.CallbackOutput,
) context.Context {
	name := getRunName("chat_model", info)

	resp := "<nil>"
	var reasoning string
	if output != nil && output.Message != nil {
		if output.Message.Content != "" {
			resp = summarizeText(output.Message.Content)
		}
		reasoning = output.Message.ReasoningContent
	}

	ev := withInvocation(ctx, h.logger.Info()).Str("model", name).
		Str("output", resp)
	// reasoning is logged in full so the whole chain of thought is
	// available for audits
	if reasoning != "" {
		ev = ev.Str("reasoning", reasoning)
	}
	ev.Msg("model end")
	return ctx
}

func (h *auditModelCallbacks) OnEndWithStreamOutput(
	ctx context.Context,
	info *callbacks.RunInfo,
	output *schema.StreamReader[*model.CallbackOutput],
) context.Context {
	name := getRunName("chat_model", info)

	// Drain the callback copy of the stream on its own goroutine so the
	// response stream is not held up by logging.
	if output != nil {
		logger := h.logger
		if id, ok := GetInvocationID(ctx); ok {
			logger = logger.With().Str("invocation", id).Logger()
		}
		go h.drainModelStream(logger, name, output)
	}

	return ctx
}

func (h *auditModelCallbacks) drainModelStream(
	logger zerolog.Logger, name string,
	sr *schema.StreamReader[*model.CallbackOutput],
) {
	defer sr.Close()

	var reasoningSb strings.Builder
	var contentSb strings.Builder

	for {
		chunk, err := sr.Recv()
		if err != nil {
			if err != io.EOF {
				logger.Warn().Err(err).Str("model", name).Msg("model stream error")
			}
			break
		}

		if chunk == nil || chunk.Message == nil {
			continue
		}

		msg := chunk.Message
		if msg.Content != "" {
			if contentSb.Len() == 0 {
				logger.Info().Str("model", name).Msg("model stream start")
			}
			contentSb.WriteString(msg.Content)
		}
		reasoningSb.WriteString(msg.ReasoningContent)
	}

	ev := logger.Info().Str("model", name).
		Str("output", summarizeText(contentSb.String()))
	if reasoningSb.Len() > 0 {
		ev = ev.Str("reasoning", reasoningSb.String())
	}
	ev.Msg("model stream end")
}

type auditToolCallbacks struct {
	logger zerolog.Logger
}

func (h *auditToolCallbacks) OnStart(
	ctx context.Context,
	info *callbacks.RunInfo,
	input *tool.CallbackInput,
) context.Context {
	name := getRunName("tool", info)

	args := "<nil>"
	if input != nil {
		args = summarizeText(input.ArgumentsInJSON)
	}

	withInvocation(ctx, h.logger.Info()).Str("tool", name).
		Str("args", args).Msg("tool start")
	return ctx
}

func (h *auditToolCallbacks) OnEnd(
	ctx context.Context,
	info *callbacks.RunInfo,
	output *tool.CallbackOutput,
) context.Context {
	name := getRunName("tool", info)

	resp := "<nil>"
	if output != nil {
		resp = summarizeText(output.Response)
	}

	withInvocation(ctx, h.logger.Info()).Str("tool", name).
		Str("output", resp).Msg("tool end")
	return ctx
}

func (h *auditToolCallbacks) OnError(
	ctx context.Context,
	info *callbacks.RunInfo,
	err error,
) context.Context {
	withInvocation(ctx, h.logger.Warn()).Str("tool", getRunName("tool", info)).
		Err(err).Msg("tool error")
	return ctx
}

// newAuditModelHandler constructs a ModelCallbackHandler that logs model
// invocations and responses using the provided logger.
func newAuditModelHandler(logger zerolog.Logger) *ub.ModelCallbackHandler {
	cb := &auditModelCallbacks{logger: logger}
	return &ub.ModelCallbackHandler{
		OnStart:               cb.OnStart,
		OnEnd:                 cb.OnEnd,
		OnEndWithStreamOutput: cb.OnEndWithStreamOutput,
	}
}

// newAuditToolHandler constructs a ToolCallbackHandler that logs tool
// invocations and responses using the provided logger.
func newAuditToolHandler(logger zerolog.Logger) *ub.ToolCallbackHandler {
	cb := &auditToolCallbacks{logger: logger}
	return &ub.ToolCallbackHandler{
		OnStart: cb.OnStart,
		OnEnd:   cb.OnEnd,
		OnError: cb.OnError,
	}
}

// NewAuditCallbacksHandler builds a callbacks.Handler that appends every
// model and tool call to the audit log at logfile.
func NewAuditCallbacksHandler(logfile string) (callbacks.Handler, io.Closer, error) {
	f, err := os.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	logger := zerolog.New(f).With().Timestamp().Str("app", "chorus").Logger()

	return newAuditHandler(logger), f, nil
}

func newAuditHandler(logger zerolog.Logger) callbacks.Handler {
	helper := ub.NewHandlerHelper().
		ChatModel(newAuditModelHandler(logger)).
		Tool(newAuditToolHandler(logger))

	return helper.Handler()
}
