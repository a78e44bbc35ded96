/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package composer

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/mikeb26/chorus/internal/types"
)

const (
	FinishStop     = "stop"
	FinishMaxSteps = "max_steps"
)

// Result is what a finished turn contributes to the conversation.
type Result struct {
	Text         string
	Reasoning    string
	Invocations  []types.Part
	Steps        int
	FinishReason string
}

// Message returns the assistant turn in its stored form.
func (r *Result) Message() types.ChatMessage {
	msg := types.ChatMessage{Role: types.LlmRoleAssistant}
	if r.Reasoning != "" {
		msg.Parts = append(msg.Parts, types.Part{Type: types.PartReasoning,
			Text: r.Reasoning})
	}
	msg.Parts = append(msg.Parts, r.Invocations...)
	msg.Parts = append(msg.Parts, types.Part{Type: types.PartText,
		Text: r.Text})

	return msg
}

// ToLlmMessages converts a stored conversation into model input. Only the
// text of earlier turns is replayed; reasoning and tool invocations are
// dropped.
func ToLlmMessages(persona string,
	history []types.ChatMessage) []*schema.Message {

	ret := make([]*schema.Message, 0, len(history)+1)
	if persona != "" {
		ret = append(ret, schema.SystemMessage(persona))
	}

	for _, m := range history {
		text := m.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		switch m.Role {
		case types.LlmRoleUser:
			ret = append(ret, schema.UserMessage(text))
		case types.LlmRoleAssistant:
			ret = append(ret, schema.AssistantMessage(text, nil))
		case types.LlmRoleSystem:
			ret = append(ret, schema.SystemMessage(text))
		}
	}

	return ret
}

func toolErrorResult(err error) string {
	encoded, jerr := json.Marshal(map[string]string{"error": err.Error()})
	if jerr != nil {
		return `{"error":"tool failed"}`
	}
	return string(encoded)
}
