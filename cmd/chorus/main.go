/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mikeb26/chorus/internal/config"
	"github.com/mikeb26/chorus/internal/logging"
	"github.com/spf13/cobra"
)

//go:embed version.txt
var versionText string

const DevVersionText = "v0.devbuild"

// CliContext carries state shared by every subcommand.
type CliContext struct {
	cfgPath   string
	logLevel  string
	serverURL string

	cfg *config.Config

	in  io.Reader
	out io.Writer
}

func (cliCtx *CliContext) configPath() string {
	if cliCtx.cfgPath != "" {
		return cliCtx.cfgPath
	}
	return filepath.Join(cliCtx.cfg.Dir(), config.ConfigFile)
}

func (cliCtx *CliContext) load() error {
	cfg, err := config.Load(cliCtx.cfgPath)
	if err != nil {
		return err
	}
	if cliCtx.logLevel != "" {
		cfg.LogLevel = cliCtx.logLevel
	}
	if cliCtx.serverURL != "" {
		cfg.ServerURL = cliCtx.serverURL
	}
	cliCtx.cfg = cfg

	return logging.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)
}

func newRootCmd(cliCtx *CliContext) *cobra.Command {
	root := &cobra.Command{
		Use:   config.CommandName,
		Short: "Streaming multi-agent chat",
		Long: `chorus runs a dispatcher agent that answers chat turns itself or
delegates to a reasoning or an execution specialist, streaming text and
structured UI blocks to the client as they are produced.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cliCtx.load()
		},
	}

	root.PersistentFlags().StringVar(&cliCtx.cfgPath, "config", "",
		"path to the configuration file (default ~/.config/chorus/config.yaml)")
	root.PersistentFlags().StringVar(&cliCtx.logLevel, "log-level", "",
		"log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cliCtx.serverURL, "server", "",
		"chorus server URL for client commands")

	root.AddCommand(
		newServeCmd(cliCtx),
		newChatCmd(cliCtx),
		newHistoryCmd(cliCtx),
		newQuotaCmd(cliCtx),
		newConfigCmd(cliCtx),
		newVersionCmd(cliCtx),
	)

	return root
}

func newVersionCmd(cliCtx *CliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the chorus version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cliCtx.out, "%v-%v\n", config.CommandName,
				versionText)
			return err
		},
	}
}

func main() {
	cliCtx := &CliContext{in: os.Stdin, out: os.Stdout}

	err := newRootCmd(cliCtx).ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", config.CommandName, err)
		os.Exit(1)
	}
}
