/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/mikeb26/chorus/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(cliCtx *CliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Interactively choose a vendor and store its API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return configInitMain(cliCtx)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration without secrets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return configShowMain(cliCtx)
		},
	})

	return cmd
}

func configInitMain(cliCtx *CliContext) error {
	input := bufio.NewReader(cliCtx.in)
	cfg := cliCtx.cfg

	fmt.Fprintf(cliCtx.out, "Enter LLM vendor [%v] (%v): ",
		strings.Join(config.GetVendors(), ", "), cfg.Dispatcher.Vendor)
	vendor, err := input.ReadString('\n')
	if err != nil {
		return err
	}
	vendor = strings.ToLower(strings.TrimSpace(vendor))
	if vendor == "" {
		vendor = cfg.Dispatcher.Vendor
	}
	info, ok := config.GetVendorInfo(vendor)
	if !ok {
		return fmt.Errorf("Vendor %v is not currently supported", vendor)
	}

	fmt.Fprintf(cliCtx.out, "Enter your %v API key (see %v): ", info.FullName,
		info.ApiKeyUrl)
	key, err := input.ReadString('\n')
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key != "" {
		if err := cfg.SaveKey(vendor, key); err != nil {
			return err
		}
	}

	if vendor != cfg.Dispatcher.Vendor {
		for _, a := range []*config.AgentConfig{&cfg.Dispatcher, &cfg.Reasoner,
			&cfg.Executor} {

			a.Vendor = vendor
			a.Model = info.DefaultModel
		}
	}

	path := cliCtx.configPath()
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cliCtx.out, "Wrote %v\n", path)

	return nil
}

func configShowMain(cliCtx *CliContext) error {
	out := *cliCtx.cfg
	out.APIKeys = nil
	out.Search.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	_, err = cliCtx.out.Write(data)
	return err
}
