/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mikeb26/chorus/internal/events"
	"github.com/rs/zerolog/log"
)

var ErrStreamingUnsupported = errors.New("streaming unsupported")

// SSEWriter encodes events as server-sent events: the event's seq as id,
// its type as the event name and the JSON encoding as data.
type SSEWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewSSEWriter sets the SSE response headers on w. It fails when w cannot
// flush, since events would then only reach the client at the end.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

func (s *SSEWriter) WriteEvent(ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq,
		ev.Type, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// heartbeatEvent names keep-alive events some proxies inject.
const heartbeatEvent = "heartbeat"

// Decode reads an SSE stream from r and delivers each event to sink in
// order until r is exhausted or ctx is done. An event that cannot be
// parsed is delivered as events.TypeInvalid addressed to the component it
// named, if any. Comment lines and heartbeat events are ignored.
func Decode(ctx context.Context, r io.Reader, sink events.Sink) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var name string
	var id uint64
	var data strings.Builder

	dispatch := func() {
		defer func() {
			name, id = "", 0
			data.Reset()
		}()
		if data.Len() == 0 || name == heartbeatEvent {
			return
		}
		var ev events.Event
		if err := json.Unmarshal([]byte(data.String()), &ev); err != nil {
			sink.Send(invalidEvent(name, id, []byte(data.String()), err))
			return
		}
		if ev.Type == "" {
			ev.Type = events.Type(name)
		}
		if ev.Seq == 0 {
			ev.Seq = id
		}
		sink.Send(ev)
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if line == "" {
			dispatch()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "id":
			id, _ = strconv.ParseUint(value, 10, 64)
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	dispatch()

	return ctx.Err()
}

// envelope is the part of an event needed to address it, decoded leniently
// when the full event does not parse.
type envelope struct {
	Type        events.Type `json:"type"`
	Source      string      `json:"source"`
	ComponentID string      `json:"component_id"`
	Block       struct {
		ID any `json:"id"`
	} `json:"block"`
}

func invalidEvent(name string, id uint64, data []byte,
	cause error) events.Event {

	var env envelope
	_ = json.Unmarshal(data, &env)
	if env.Type == "" {
		env.Type = events.Type(name)
	}
	target := env.ComponentID
	if blockID, ok := env.Block.ID.(string); ok && target == "" {
		target = blockID
	}

	log.Warn().Err(cause).Uint64("seq", id).Str("type", string(env.Type)).
		Str("component", target).Msg("malformed stream event")

	ev := events.InvalidEvent(env.Source, target,
		fmt.Errorf("malformed %v event: %w", env.Type, cause))
	ev.Seq = id
	return ev
}
