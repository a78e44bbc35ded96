/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package events defines the unit written to a response's outbound channel
// and the sink interface through which producers and consumers exchange it.
package events

import (
	"encoding/json"
	"sync"

	"github.com/mikeb26/chorus/internal/blocks"
)

type Type string

const (
	// TypeTextDelta carries a token of the dispatcher's own answer.
	TypeTextDelta Type = "text-delta"
	// TypeText carries free-standing text or a sub-agent answer token; the
	// Append flag joins it onto the previous fragment.
	TypeText       Type = "text"
	TypeReasoning  Type = "reasoning"
	TypeToolCall   Type = "tool-call"
	TypeToolResult Type = "tool-result"
	TypeBlock      Type = "block"

	TypeComponentStart  Type = "component_start"
	TypeComponentUpdate Type = "component_update"
	TypeComponentEnd    Type = "component_end"

	TypeError  Type = "error"
	TypeFinish Type = "finish"

	// TypeInvalid is never written by a producer. Decoders emit it in place
	// of an event whose payload could not be parsed, naming the component
	// it targeted when that much could be recovered.
	TypeInvalid Type = "invalid"
)

// Event is one discrete JSON object on the outbound channel. Only the
// fields relevant to Type are set.
type Event struct {
	Seq    uint64 `json:"seq,omitempty"`
	Type   Type   `json:"type"`
	Source string `json:"source,omitempty"`

	Delta  string `json:"delta,omitempty"`
	Append bool   `json:"append,omitempty"`

	Block *blocks.Block `json:"block,omitempty"`

	ComponentID    string          `json:"component_id,omitempty"`
	Component      string          `json:"component,omitempty"`
	Props          json.RawMessage `json:"props,omitempty"`
	EstimatedProps json.RawMessage `json:"estimated_props,omitempty"`
	Operation      string          `json:"operation,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Index          *int            `json:"index,omitempty"`
	Path           string          `json:"path,omitempty"`
	Key            string          `json:"key,omitempty"`
	FinalProps     json.RawMessage `json:"final_props,omitempty"`

	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	Args       string `json:"args,omitempty"`
	Result     string `json:"result,omitempty"`

	Error        string `json:"error,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Sink receives events in order. Send never fails from the caller's point
// of view; a sink whose transport has gone away drops the event.
type Sink interface {
	Send(ev Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) Send(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder keeps every event it receives; useful for tests and for
// collecting a response after the fact.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Send(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of what has been recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// BlockEvent wraps a block for the channel.
func BlockEvent(source string, b *blocks.Block) Event {
	return Event{Type: TypeBlock, Source: source, Block: b}
}

// ErrorEvent builds the event that reports a failure to the client.
func ErrorEvent(source string, err error) Event {
	return Event{Type: TypeError, Source: source, Error: err.Error()}
}

// InvalidEvent reports an inbound event that could not be parsed. id is the
// component or block it addressed, empty when unknown.
func InvalidEvent(source, id string, err error) Event {
	return Event{Type: TypeInvalid, Source: source, ComponentID: id,
		Error: err.Error()}
}
