/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package stream carries one response's events from the producers to the
// client: an ordered in-process channel, its SSE encoding, and the client
// side decoder.
package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/mikeb26/chorus/internal/events"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("stream closed")

// Writer is the transport under a Channel.
type Writer interface {
	WriteEvent(ev events.Event) error
}

// WriterFunc adapts a function to a Writer.
type WriterFunc func(ev events.Event) error

func (f WriterFunc) WriteEvent(ev events.Event) error { return f(ev) }

// SinkWriter forwards to an in-process sink.
func SinkWriter(sink events.Sink) Writer {
	return WriterFunc(func(ev events.Event) error {
		sink.Send(ev)
		return nil
	})
}

// Channel is the single ordered outbound sequence of one response. Every
// producer writes through Send; writes are serialized, numbered in the
// order they are accepted and handed to the transport in that same order.
// Once the channel is closed, its context is done or the transport fails,
// further writes are silently dropped.
type Channel struct {
	ctx context.Context
	w   Writer

	mu      sync.Mutex
	seq     uint64
	closed  bool
	err     error
	dropped int
}

func NewChannel(ctx context.Context, w Writer) *Channel {
	return &Channel{ctx: ctx, w: w}
}

// Send implements events.Sink.
func (c *Channel) Send(ev events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.ctx.Err() != nil {
		c.dropped++
		return
	}

	c.seq++
	ev.Seq = c.seq
	if err := c.w.WriteEvent(ev); err != nil {
		// the client is gone; nothing later can reach it either
		log.Debug().Err(err).Uint64("seq", ev.Seq).Msg("stream write failed")
		c.closed = true
		c.err = err
	}
}

// Close terminates the channel. A non-nil err marks the response as
// failed. Only the first Close has any effect.
func (c *Channel) Close(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.err = err
	if c.dropped > 0 {
		log.Debug().Int("dropped", c.dropped).Msg("stream dropped late events")
	}
}

// Err returns the error the channel was closed with, if any.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Seq returns the number of events written so far.
func (c *Channel) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}
