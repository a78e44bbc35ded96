/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package llmclient

import (
	"context"
	"testing"

	laclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestInvocationID_GetAndEnsure(t *testing.T) {
	ctx := context.Background()

	id, ok := GetInvocationID(ctx)
	assert.False(t, ok)
	assert.Empty(t, id)

	ctx2, id2 := EnsureInvocationID(ctx)
	assert.NotEmpty(t, id2)

	id3, ok := GetInvocationID(ctx2)
	assert.True(t, ok)
	assert.Equal(t, id2, id3)

	ctx3, id4 := EnsureInvocationID(ctx2)
	assert.Equal(t, ctx2, ctx3)
	assert.Equal(t, id2, id4)
}

func TestNewChatModel_Errors(t *testing.T) {
	_, err := NewChatModel(context.Background(), types.AgentContext{
		LlmVendor: "openai",
	})
	assert.ErrorContains(t, err, "no api key")

	_, err = NewChatModel(context.Background(), types.AgentContext{
		LlmVendor: "acme", LlmApiKey: "k",
	})
	assert.ErrorContains(t, err, "unsupported vendor")
}

func TestModelOptions(t *testing.T) {
	assert.Len(t, ModelOptions(types.AgentContext{LlmVendor: "openai",
		LlmReasoningEffort: "high"}), 1)
	assert.Empty(t, ModelOptions(types.AgentContext{LlmVendor: "openai"}))
	assert.Empty(t, ModelOptions(types.AgentContext{LlmVendor: "anthropic",
		LlmReasoningEffort: "high"}))

	effort, ok := ParseReasoningEffort(" Medium ")
	assert.True(t, ok)
	assert.Equal(t, laclopenai.ReasoningEffortLevelMedium, effort)
}
