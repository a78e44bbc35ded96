/* Copyright © 2024-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package types

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// wrap eino with our own types/interfaces in order to enable the possibility
// of switching frameworks easily in the future

type LlmMessage = schema.Message
type LlmTool = tool.InvokableTool
type LlmRole = schema.RoleType

const LlmRoleSystem = schema.System
const LlmRoleAssistant = schema.Assistant
const LlmRoleUser = schema.User
const LlmRoleTool = schema.Tool

// LlmChatModel is the streaming, tool-binding chat model every agent runs
// on. It mirrors model.ToolCallingChatModel so that mocks satisfy both.
//
//go:generate mockgen --build_flags=--mod=mod -destination=llm_chat_model_mock.go -package=$GOPACKAGE github.com/mikeb26/chorus/internal/types LlmChatModel
type LlmChatModel interface {
	Generate(ctx context.Context, input []*schema.Message,
		opts ...model.Option) (*schema.Message, error)
	Stream(ctx context.Context, input []*schema.Message,
		opts ...model.Option) (*schema.StreamReader[*schema.Message], error)
	WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error)
}

var _ model.ToolCallingChatModel = (LlmChatModel)(nil)
