/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package types

import (
	"strings"
	"time"
)

type PartType string

const (
	PartText           PartType = "text"
	PartReasoning      PartType = "reasoning"
	PartToolInvocation PartType = "tool-invocation"
)

// Part is one piece of a chat message as stored and as sent by clients.
type Part struct {
	Type       PartType `json:"type"`
	Text       string   `json:"text,omitempty"`
	ToolName   string   `json:"tool_name,omitempty"`
	ToolCallID string   `json:"tool_call_id,omitempty"`
	Args       string   `json:"args,omitempty"`
	Result     string   `json:"result,omitempty"`
}

type ChatMessage struct {
	Role  LlmRole `json:"role"`
	Parts []Part  `json:"parts"`
}

// Text joins the message's text parts.
func (m ChatMessage) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func NewTextMessage(role LlmRole, text string) ChatMessage {
	return ChatMessage{Role: role, Parts: []Part{{Type: PartText, Text: text}}}
}

// ChatHistory is the persisted form of one conversation.
type ChatHistory struct {
	ID        string        `json:"id"`
	Messages  []ChatMessage `json:"messages"`
	Timestamp time.Time     `json:"timestamp"`
}

// Title returns a one-line label for listings: the first user text,
// shortened.
func (h *ChatHistory) Title() string {
	const maxLen = 60
	for _, m := range h.Messages {
		if m.Role != LlmRoleUser {
			continue
		}
		t := strings.Join(strings.Fields(m.Text()), " ")
		if len(t) > maxLen {
			t = t[:maxLen] + "..."
		}
		return t
	}
	return "(empty)"
}

// ChatRequest is the body of a chat turn: the whole conversation so far,
// ending with the new user message.
type ChatRequest struct {
	ID       string        `json:"id,omitempty"`
	Messages []ChatMessage `json:"messages"`
}
