/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikeb26/chorus/internal/stream"
	"github.com/mikeb26/chorus/internal/types"
	"github.com/spf13/cobra"
)

const (
	RowFmt    = "│ %-36v │ %8v │ %18v │ %-40v\n"
	RowSpacer = "──────────────────────────────────────────────────────────────────────────────────────────────────────────────\n"
)

func newHistoryCmd(cliCtx *CliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show or remove stored chats",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored chats, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := stream.NewClient(cliCtx.cfg.ServerURL)
			chats, err := client.ListChats(cmd.Context())
			if err != nil {
				return err
			}
			_, err = io.WriteString(cliCtx.out, chatListString(chats, time.Now()))
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := stream.NewClient(cliCtx.cfg.ServerURL)
			h, err := client.GetChat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cliCtx.out, chatString(h))
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Remove a stored chat",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := stream.NewClient(cliCtx.cfg.ServerURL)
			return client.DeleteChat(cmd.Context(), args[0])
		},
	})

	return cmd
}

func chatListString(chats []*types.ChatHistory, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(RowSpacer)
	sb.WriteString(fmt.Sprintf(RowFmt, "Chat", "Messages", "Last Modified",
		"Title"))
	sb.WriteString(RowSpacer)
	for _, h := range chats {
		sb.WriteString(fmt.Sprintf(RowFmt, h.ID, len(h.Messages),
			formatHeaderTime(h.Timestamp, now), h.Title()))
	}
	sb.WriteString(RowSpacer)

	return sb.String()
}

// chatString prints each message's text under its role; tool invocations
// are listed by name only.
func chatString(h *types.ChatHistory) string {
	var sb strings.Builder

	for _, m := range h.Messages {
		sb.WriteString(fmt.Sprintf("%v:\n", m.Role))
		for _, p := range m.Parts {
			switch p.Type {
			case types.PartText:
				sb.WriteString(strings.TrimSpace(p.Text))
				sb.WriteString("\n")
			case types.PartToolInvocation:
				sb.WriteString(fmt.Sprintf("  [%v]\n", p.ToolName))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatHeaderTime renders a timestamp for the chat list. If the time falls
// on the same local calendar day as "now", the date portion is replaced
// with "Today"; on the preceding calendar day with "Yesterday".
func formatHeaderTime(ts time.Time, now time.Time) string {
	ts = ts.In(now.Location())

	full := ts.Format("01/02/2006 03:04pm")
	datePart := ts.Format("01/02/2006")

	y, m, d := now.Date()
	yest := now.AddDate(0, 0, -1)
	yestY, yestM, yestD := yest.Date()
	ty, tm, td := ts.Date()

	switch {
	case ty == y && tm == m && td == d:
		return strings.Replace(full, datePart, "Today", 1)
	case ty == yestY && tm == yestM && td == yestD:
		return strings.Replace(full, datePart, "Yesterday", 1)
	default:
		return full
	}
}
