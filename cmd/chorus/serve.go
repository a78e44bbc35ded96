/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikeb26/chorus/internal/composer"
	"github.com/mikeb26/chorus/internal/config"
	"github.com/mikeb26/chorus/internal/llmclient"
	"github.com/mikeb26/chorus/internal/prompts"
	"github.com/mikeb26/chorus/internal/quota"
	"github.com/mikeb26/chorus/internal/server"
	"github.com/mikeb26/chorus/internal/store"
	"github.com/mikeb26/chorus/internal/tools"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(cliCtx *CliContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				cliCtx.cfg.Listen = listen
			}
			return serveMain(cmd.Context(), cliCtx.cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on")

	return cmd
}

// buildAgents connects the dispatcher and both specialists. A specialist
// whose model cannot be created is left out; the dispatcher then answers
// without that capability.
func buildAgents(ctx context.Context, cfg *config.Config) (composer.Agents, error) {
	var agents composer.Agents

	actx, err := cfg.AgentContext(cfg.Dispatcher)
	if err != nil {
		return agents, err
	}
	agents.Dispatcher, err = llmclient.NewChatModel(ctx, actx)
	if err != nil {
		return agents, err
	}
	agents.DispatcherOptions = llmclient.ModelOptions(actx)

	agents.Reasoner = buildSpecialist(ctx, cfg, cfg.Reasoner,
		llmclient.Specialist{Name: "reasoner", Title: "Reasoner",
			Persona: prompts.ReasonerMsg})
	agents.Executor = buildSpecialist(ctx, cfg, cfg.Executor,
		llmclient.Specialist{Name: "executor", Title: "Executor",
			Persona: prompts.ExecutorMsg})

	return agents, nil
}

func buildSpecialist(ctx context.Context, cfg *config.Config,
	a config.AgentConfig, spec llmclient.Specialist) llmclient.Specialist {

	actx, err := cfg.AgentContext(a)
	if err == nil {
		spec.Model, err = llmclient.NewChatModel(ctx, actx)
	}
	if err != nil {
		log.Warn().Err(err).Str("agent", spec.Name).
			Msg("specialist unavailable")
		return spec
	}
	spec.Options = llmclient.ModelOptions(actx)

	return spec
}

func composerConfig(cfg *config.Config) composer.Config {
	return composer.Config{
		MaxSteps: cfg.MaxSteps,
		Search: tools.SearchConfig{
			Endpoint:   cfg.Search.Endpoint,
			APIKey:     cfg.Search.APIKey,
			MaxResults: cfg.Search.MaxResults,
		},
		Fetch: tools.FetchConfig{
			MaxChars: cfg.Fetch.MaxChars,
			RenderJS: cfg.Fetch.RenderJS,
		},
		Counter: quota.NewCounter(cfg.Search.MonthlyLimit),
	}
}

func serveMain(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	agents, err := buildAgents(ctx, cfg)
	if err != nil {
		return err
	}

	ccfg := composerConfig(cfg)
	if cfg.AuditLogPath != "" {
		audit, closer, err := llmclient.NewAuditCallbacksHandler(cfg.AuditLogPath)
		if err != nil {
			return err
		}
		defer closer.Close()
		ccfg.Handlers = append(ccfg.Handlers, audit)
	}

	chats, err := store.Open(store.Backend(cfg.Store.Backend), cfg.Store.Path)
	if err != nil {
		return err
	}
	defer chats.Close()

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.New(agents, ccfg, chats).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// in-flight turns end when the process is asked to stop
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Str("addr", cfg.Listen).
			Str("store", cfg.Store.Backend).
			Msg("starting chorus server")
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			shutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down chorus server")
		return httpServer.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
