/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/mikeb26/chorus/internal/quota"
	"github.com/mikeb26/chorus/internal/stream"
	"github.com/spf13/cobra"
)

func newQuotaCmd(cliCtx *CliContext) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show the web search quota",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := stream.NewClient(cliCtx.cfg.ServerURL)

			var st quota.RateLimitState
			var err error
			if reset {
				st, err = client.ResetQuota(cmd.Context())
			} else {
				st, err = client.Quota(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printQuota(cliCtx.out, st)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false,
		"zero the usage counter, e.g. at the start of a billing month")

	return cmd
}

func printQuota(out io.Writer, st quota.RateLimitState) error {
	_, err := fmt.Fprintf(out, "web search: %v of %v used, %v remaining (%v)\n",
		st.Used, st.Limit, st.Remaining, st.Status)
	if err != nil || st.ResetTime.IsZero() {
		return err
	}
	_, err = fmt.Fprintf(out, "resets %v\n",
		formatHeaderTime(st.ResetTime, time.Now()))
	return err
}
