/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mikeb26/chorus/internal/composer"
	"github.com/mikeb26/chorus/internal/render"
	"github.com/mikeb26/chorus/internal/store"
	"github.com/mikeb26/chorus/internal/stream"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	redrawInterval = 80 * time.Millisecond
	defaultWidth   = 100
	promptText     = "> "
)

type chatOptions struct {
	resume    string
	reasoning bool
}

func newChatCmd(cliCtx *CliContext) *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: "Chat with the dispatcher; interactive when no prompt is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return chatMain(cmd.Context(), cliCtx, opts,
				strings.TrimSpace(strings.Join(args, " ")))
		},
	}
	cmd.Flags().StringVar(&opts.resume, "resume", "",
		"continue the stored chat with this id")
	cmd.Flags().BoolVar(&opts.reasoning, "reasoning", false,
		"show agent reasoning")

	return cmd
}

// chatSession is one conversation as seen by the client.
type chatSession struct {
	id       string
	messages []types.ChatMessage

	client    *stream.Client
	out       io.Writer
	tty       bool
	width     int
	reasoning bool
}

func chatMain(ctx context.Context, cliCtx *CliContext, opts chatOptions,
	prompt string) error {

	sess := &chatSession{
		id:        opts.resume,
		client:    stream.NewClient(cliCtx.cfg.ServerURL),
		out:       cliCtx.out,
		width:     defaultWidth,
		reasoning: opts.reasoning,
	}
	if f, ok := cliCtx.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sess.tty = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			sess.width = w
		}
	}

	if sess.id != "" {
		h, err := sess.client.GetChat(ctx, sess.id)
		if err != nil {
			return fmt.Errorf("Could not load chat %v: %w", sess.id, err)
		}
		sess.messages = h.Messages
	} else {
		sess.id = store.NewChatID()
	}

	if prompt != "" {
		return sess.turn(ctx, prompt)
	}

	fmt.Fprintf(sess.out, "chat %v; type 'exit' or ^D to quit\n", sess.id)
	input := bufio.NewReader(cliCtx.in)
	for {
		fmt.Fprint(sess.out, promptText)
		line, err := input.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			return nil
		}
		if line != "" {
			if turnErr := sess.turn(ctx, line); turnErr != nil {
				fmt.Fprintf(os.Stderr, "%v\n", turnErr)
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(sess.out)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// turn sends prompt with the conversation so far and renders the reply as
// it streams. ^C cancels the turn but not the session.
func (sess *chatSession) turn(ctx context.Context, prompt string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	user := types.NewTextMessage(types.LlmRoleUser, prompt)
	req := types.ChatRequest{
		ID:       sess.id,
		Messages: append(append([]types.ChatMessage{}, sess.messages...), user),
	}

	var opts []render.RendererOption
	if sess.tty {
		opts = append(opts, render.WithMarkdown())
	}
	if sess.reasoning {
		opts = append(opts, render.WithReasoning())
	}
	view := newLiveView(sess.out, render.NewRenderer(sess.width, opts...),
		sess.tty)
	consumer := render.NewConsumer(view.markDirty)
	view.consumer = consumer

	done := make(chan struct{})
	go view.run(done)
	err := sess.client.Chat(ctx, req, consumer)
	close(done)
	view.wait()
	view.draw()

	if err != nil {
		return err
	}

	snap := consumer.Snapshot()
	if snap.Error != "" {
		return fmt.Errorf("turn failed: %v", snap.Error)
	}
	if snap.FinishReason == composer.FinishMaxSteps {
		log.Warn().Msg("reply was cut short after too many tool steps")
	}
	sess.refresh(ctx, req.Messages, snap)

	return nil
}

// refresh picks up the stored conversation, which carries the full
// assistant message, falling back to the streamed text.
func (sess *chatSession) refresh(ctx context.Context,
	sent []types.ChatMessage, snap render.Snapshot) {

	h, err := sess.client.GetChat(ctx, sess.id)
	if err == nil {
		sess.messages = h.Messages
		return
	}
	log.Debug().Err(err).Str("chat", sess.id).Msg("stored chat unavailable")

	sess.messages = append(sent, types.NewTextMessage(types.LlmRoleAssistant,
		streamedAnswer(snap)))
}

func streamedAnswer(snap render.Snapshot) string {
	var sb strings.Builder
	for _, f := range snap.Fragments {
		if f.Kind == render.FragmentText && f.Source == composer.DispatcherSource {
			sb.WriteString(f.Text)
		}
	}
	return sb.String()
}

// liveView repaints the consumer's state in place on a terminal, or
// prints it once at the end otherwise.
type liveView struct {
	mu       sync.Mutex
	out      io.Writer
	r        *render.Renderer
	consumer *render.Consumer
	tty      bool
	lines    int

	dirty   atomic.Bool
	stopped chan struct{}
}

func newLiveView(out io.Writer, r *render.Renderer, tty bool) *liveView {
	return &liveView{out: out, r: r, tty: tty, stopped: make(chan struct{})}
}

func (v *liveView) markDirty() {
	v.dirty.Store(true)
}

func (v *liveView) run(done <-chan struct{}) {
	defer close(v.stopped)
	if !v.tty {
		<-done
		return
	}

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if v.dirty.Swap(false) {
				v.draw()
			}
		}
	}
}

func (v *liveView) wait() {
	<-v.stopped
}

func (v *liveView) draw() {
	v.mu.Lock()
	defer v.mu.Unlock()

	text := v.r.View(v.consumer.Snapshot())
	if v.tty && v.lines > 0 {
		// cursor to the start of the previous frame, then clear below
		fmt.Fprintf(v.out, "\r\x1b[%dA\x1b[J", v.lines)
	}
	if text == "" {
		v.lines = 0
		return
	}
	fmt.Fprintln(v.out, text)
	v.lines = strings.Count(text, "\n") + 1
}
