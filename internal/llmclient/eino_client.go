/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package llmclient builds the chat models agents run on and the bridge
// that lets one agent call another as a tool.
package llmclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	laclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"github.com/mikeb26/chorus/internal/types"
	"google.golang.org/genai"
)

// invocationIDKey is an unexported context key type used to store a per-
// request ID so that all log and audit entries for one response can be
// correlated.
type invocationIDKey struct{}

// GetInvocationID extracts the invocation ID from the context, if present.
func GetInvocationID(ctx context.Context) (string, bool) {
	if v := ctx.Value(invocationIDKey{}); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// EnsureInvocationID returns a context that is guaranteed to carry an
// invocation ID, and the ID itself. If the ID is already present, it is
// reused; otherwise, a new UUID is generated and attached to the context.
func EnsureInvocationID(ctx context.Context) (context.Context, string) {
	if id, ok := GetInvocationID(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	ctx = context.WithValue(ctx, invocationIDKey{}, id)
	return ctx, id
}

// NewChatModel connects to the vendor named in actx.
func NewChatModel(ctx context.Context,
	actx types.AgentContext) (types.LlmChatModel, error) {

	if actx.LlmApiKey == "" {
		return nil, fmt.Errorf("%v: no api key configured", actx.LlmVendor)
	}

	switch strings.ToLower(actx.LlmVendor) {
	case "openai":
		return newOpenAIChatModel(ctx, actx)
	case "anthropic":
		return newAnthropicChatModel(ctx, actx)
	case "google":
		return newGoogleChatModel(ctx, actx)
	}

	return nil, fmt.Errorf("unsupported vendor %q", actx.LlmVendor)
}

func newOpenAIChatModel(ctx context.Context,
	actx types.AgentContext) (types.LlmChatModel, error) {

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:  actx.LlmModel,
		APIKey: actx.LlmApiKey,
	})
}

func newAnthropicChatModel(ctx context.Context,
	actx types.AgentContext) (types.LlmChatModel, error) {

	return claude.NewChatModel(ctx, &claude.Config{
		Model:  actx.LlmModel,
		APIKey: actx.LlmApiKey,
		// currently hardcode max tokens to 64k; see
		// https://platform.claude.com/docs/en/api/go/messages/create
		MaxTokens: 64000,
	})
}

func newGoogleChatModel(ctx context.Context,
	actx types.AgentContext) (types.LlmChatModel, error) {

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: actx.LlmApiKey,
	})
	if err != nil {
		return nil, err
	}

	return gemini.NewChatModel(ctx, &gemini.Config{
		Model:  actx.LlmModel,
		Client: client,
	})
}

// ModelOptions returns the per-call options for an agent. Only OpenAI
// models take a reasoning effort.
func ModelOptions(actx types.AgentContext) []model.Option {
	if !strings.EqualFold(actx.LlmVendor, "openai") {
		return nil
	}
	effort, ok := ParseReasoningEffort(actx.LlmReasoningEffort)
	if !ok {
		return nil
	}

	return []model.Option{laclopenai.WithReasoningEffort(effort)}
}

func ParseReasoningEffort(s string) (laclopenai.ReasoningEffortLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return laclopenai.ReasoningEffortLevelLow, true
	case "medium":
		return laclopenai.ReasoningEffortLevelMedium, true
	case "high":
		return laclopenai.ReasoningEffortLevelHigh, true
	}
	return "", false
}
