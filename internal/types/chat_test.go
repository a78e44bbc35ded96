/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatMessage_Text(t *testing.T) {
	m := ChatMessage{Role: LlmRoleAssistant, Parts: []Part{
		{Type: PartReasoning, Text: "thinking"},
		{Type: PartText, Text: "hello "},
		{Type: PartToolInvocation, ToolName: "web_search"},
		{Type: PartText, Text: "world"},
	}}
	assert.Equal(t, "hello world", m.Text())
}

func TestChatHistory_Title(t *testing.T) {
	h := &ChatHistory{Messages: []ChatMessage{
		NewTextMessage(LlmRoleSystem, "persona"),
		NewTextMessage(LlmRoleUser, "  Compare\nA vs B  "),
	}}
	assert.Equal(t, "Compare A vs B", h.Title())

	h.Messages[1] = NewTextMessage(LlmRoleUser, strings.Repeat("x", 100))
	assert.Len(t, h.Title(), 63)

	assert.Equal(t, "(empty)", (&ChatHistory{}).Title())
}
