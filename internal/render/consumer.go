/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package render consumes a response's event stream on the client side and
// turns it into progressively filled widgets.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mikeb26/chorus/internal/blocks"
	"github.com/mikeb26/chorus/internal/events"
	"github.com/rs/zerolog/log"
)

type ComponentStatus string

const (
	StatusInitializing ComponentStatus = "initializing"
	StatusStreaming    ComponentStatus = "streaming"
	StatusCompleted    ComponentStatus = "completed"
	StatusError        ComponentStatus = "error"
)

// ComponentState is the client's view of one widget.
type ComponentState struct {
	ID          string
	Type        blocks.Type
	Source      string
	Props       blocks.Props
	Status      ComponentStatus
	CreatedAt   time.Time
	LastUpdated time.Time
	Error       string
}

type FragmentKind string

const (
	FragmentText      FragmentKind = "text"
	FragmentReasoning FragmentKind = "reasoning"
)

// TextFragment is a run of streamed text from one source.
type TextFragment struct {
	Source string
	Kind   FragmentKind
	Text   string
}

// Entry is one item of the render order: either a component or a text
// fragment.
type Entry struct {
	ComponentID string
	Fragment    int
}

func (e Entry) IsComponent() bool {
	return e.ComponentID != ""
}

// Consumer applies events one at a time to the client state. It implements
// events.Sink and is safe for concurrent use.
type Consumer struct {
	mu        sync.Mutex
	states    map[string]*ComponentState
	entries   []Entry
	fragments []TextFragment
	warnings  []string

	finished     bool
	finishReason string
	streamErr    string

	now      func() time.Time
	onChange func()
}

// NewConsumer returns an empty consumer. onChange, when non-nil, is called
// after every event, outside the consumer's lock.
func NewConsumer(onChange func()) *Consumer {
	return &Consumer{
		states:   make(map[string]*ComponentState),
		now:      time.Now,
		onChange: onChange,
	}
}

func (c *Consumer) Send(ev events.Event) {
	c.mu.Lock()
	c.apply(ev)
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange()
	}
}

// apply handles a single event. A failure is confined to the component the
// event addresses.
func (c *Consumer) apply(ev events.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(eventTarget(ev), fmt.Errorf("render failed: %v", r))
		}
	}()

	switch ev.Type {
	case events.TypeText:
		c.appendText(ev.Source, FragmentText, ev.Delta, ev.Append)
	case events.TypeTextDelta:
		c.appendText(ev.Source, FragmentText, ev.Delta, true)
	case events.TypeReasoning:
		c.appendText(ev.Source, FragmentReasoning, ev.Delta, true)
	case events.TypeComponentStart:
		c.fail(ev.ComponentID, c.componentStart(ev))
	case events.TypeComponentUpdate:
		c.fail(ev.ComponentID, c.componentUpdate(ev))
	case events.TypeComponentEnd:
		c.fail(ev.ComponentID, c.componentEnd(ev))
	case events.TypeBlock:
		if ev.Block == nil {
			c.warn("block event without a block")
			return
		}
		c.fail(ev.Block.ID, c.block(ev.Source, ev.Block))
	case events.TypeInvalid:
		c.fail(ev.ComponentID, errors.New(ev.Error))
	case events.TypeError:
		c.finished = true
		c.streamErr = ev.Error
	case events.TypeFinish:
		c.finished = true
		c.finishReason = ev.FinishReason
	case events.TypeToolCall, events.TypeToolResult:
		// surfaced through the tool activity component
	default:
		c.warn(fmt.Sprintf("ignoring event type %q", ev.Type))
	}
}

func eventTarget(ev events.Event) string {
	if ev.Block != nil {
		return ev.Block.ID
	}
	return ev.ComponentID
}

// appendText extends the newest fragment from source when join is set and
// nothing else has been rendered after it; otherwise it starts a new one.
func (c *Consumer) appendText(source string, kind FragmentKind, text string,
	join bool) {

	if text == "" {
		return
	}
	if join && len(c.entries) > 0 {
		last := c.entries[len(c.entries)-1]
		if !last.IsComponent() {
			f := &c.fragments[last.Fragment]
			if f.Source == source && f.Kind == kind {
				f.Text += text
				return
			}
		}
	}

	c.fragments = append(c.fragments, TextFragment{Source: source,
		Kind: kind, Text: text})
	c.entries = append(c.entries, Entry{Fragment: len(c.fragments) - 1})
}

func (c *Consumer) componentStart(ev events.Event) error {
	if ev.ComponentID == "" {
		c.warn("component_start without an id")
		return nil
	}
	st, seen := c.states[ev.ComponentID]
	if seen && st.Status == StatusCompleted {
		return nil
	}

	typ := blocks.ParseType(ev.Component)
	props := blocks.DefaultProps(typ)
	if u, ok := props.(*blocks.UnknownProps); ok {
		u.TypeName = ev.Component
	}
	for _, raw := range []json.RawMessage{ev.Props, ev.EstimatedProps} {
		fields, err := rawFields(raw)
		if err != nil {
			return err
		}
		if props, err = blocks.MergeFields(props, fields); err != nil {
			return err
		}
	}

	now := c.now()
	if !seen {
		st = &ComponentState{ID: ev.ComponentID, CreatedAt: now}
		c.states[ev.ComponentID] = st
		c.entries = append(c.entries, Entry{ComponentID: ev.ComponentID})
	}
	st.Type = typ
	st.Source = ev.Source
	st.Props = props
	st.Status = StatusInitializing
	st.Error = ""
	st.LastUpdated = now

	return nil
}

func (c *Consumer) componentUpdate(ev events.Event) error {
	st, ok := c.live(ev.ComponentID, ev.Type)
	if !ok {
		return nil
	}

	op, err := blocks.ParseOp(ev.Operation, ev.Data, ev.Index, ev.Path, ev.Key)
	if err != nil {
		return err
	}
	props, err := blocks.Apply(st.Props, op)
	if err != nil {
		return err
	}

	st.Props = props
	st.Status = StatusStreaming
	st.Error = ""
	st.LastUpdated = c.now()

	return nil
}

func (c *Consumer) componentEnd(ev events.Event) error {
	st, ok := c.live(ev.ComponentID, ev.Type)
	if !ok {
		return nil
	}

	if len(ev.FinalProps) > 0 && string(ev.FinalProps) != "null" {
		props, err := blocks.Apply(st.Props, blocks.Replace{Props: ev.FinalProps})
		if err != nil {
			return err
		}
		st.Props = props
	}
	st.Status = StatusCompleted
	st.Error = ""
	st.LastUpdated = c.now()

	return nil
}

// live returns the state for id unless it is missing or completed.
func (c *Consumer) live(id string, typ events.Type) (*ComponentState, bool) {
	st, ok := c.states[id]
	if !ok {
		c.warn(fmt.Sprintf("%v for unknown component %q", typ, id))
		return nil, false
	}
	if st.Status == StatusCompleted {
		return nil, false
	}
	return st, true
}

func (c *Consumer) block(source string, b *blocks.Block) error {
	if b.ID == "" {
		c.warn("block without an id")
		return nil
	}
	fields, err := b.Fields()
	if err != nil {
		return err
	}

	now := c.now()
	st, seen := c.states[b.ID]
	switch {
	case seen && st.Status == StatusCompleted:
		return nil
	case seen:
		if b.Type != "" && b.Type != st.Type {
			return fmt.Errorf("%w: %v is %v, got %v", blocks.ErrTypeMismatch,
				b.ID, st.Type, b.Type)
		}
		props, err := blocks.MergeFields(st.Props, fields)
		if err != nil {
			return err
		}
		st.Props = props
	default:
		typ, name := b.Type, b.TypeName
		if typ == "" {
			typ = blocks.TypeUnknown
		}
		props, err := blocks.DecodeProps(typ, name, fields)
		if err != nil {
			return err
		}
		st = &ComponentState{ID: b.ID, Type: typ, Source: source,
			Props: props, CreatedAt: now}
		c.states[b.ID] = st
		c.entries = append(c.entries, Entry{ComponentID: b.ID})
	}

	switch b.Status {
	case blocks.StatusInit:
		st.Status = StatusInitializing
	case blocks.StatusRunning, blocks.StatusUpdate:
		st.Status = StatusStreaming
	default:
		st.Status = StatusCompleted
	}
	st.Error = ""
	st.LastUpdated = now

	return nil
}

// fail marks the component err belongs to as errored. Errors for ids the
// consumer has never seen only produce a warning.
func (c *Consumer) fail(id string, err error) {
	if err == nil {
		return
	}
	log.Warn().Err(err).Str("component", id).Msg("render error")

	st, ok := c.states[id]
	if !ok {
		c.warn(err.Error())
		return
	}
	st.Status = StatusError
	st.Error = err.Error()
	st.LastUpdated = c.now()
}

func (c *Consumer) warn(msg string) {
	log.Debug().Msg(msg)
	c.warnings = append(c.warnings, msg)
}

func rawFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("props must be an object: %w", err)
	}
	return fields, nil
}

// Component returns a copy of the state of id.
func (c *Consumer) Component(id string) (ComponentState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[id]
	if !ok {
		return ComponentState{}, false
	}
	return *st, true
}

// Snapshot is a consistent copy of everything rendered so far.
type Snapshot struct {
	Entries      []Entry
	Components   map[string]ComponentState
	Fragments    []TextFragment
	Warnings     []string
	Finished     bool
	FinishReason string
	Error        string
}

func (c *Consumer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Entries:      append([]Entry(nil), c.entries...),
		Components:   make(map[string]ComponentState, len(c.states)),
		Fragments:    append([]TextFragment(nil), c.fragments...),
		Warnings:     append([]string(nil), c.warnings...),
		Finished:     c.finished,
		FinishReason: c.finishReason,
		Error:        c.streamErr,
	}
	for id, st := range c.states {
		snap.Components[id] = *st
	}
	return snap
}

// Order returns component ids in first-seen order.
func (s Snapshot) Order() []string {
	var ids []string
	for _, e := range s.Entries {
		if e.IsComponent() {
			ids = append(ids, e.ComponentID)
		}
	}
	return ids
}
