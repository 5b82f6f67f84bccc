// Command billing serves the Innerbloom billing API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/innerbloom/billing/pkg/clientip"
	"github.com/innerbloom/billing/pkg/config"
	"github.com/innerbloom/billing/pkg/environment"
	"github.com/innerbloom/billing/pkg/httpserver"
	"github.com/innerbloom/billing/pkg/identity"
	"github.com/innerbloom/billing/pkg/logger"
	"github.com/innerbloom/billing/pkg/requestid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "billing:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return err
	}
	env := environment.Parse(cfg.Env)
	log := logger.New(
		logger.WithEnvironment(env, cfg.ServiceName),
		logger.WithConfig(logCfg),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			identity.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	var srvCfg httpserver.Config
	if err := config.Load(&srvCfg); err != nil {
		return errors.Join(err, deps.close(ctx))
	}

	srv := httpserver.New(srvCfg, newRouter(deps, env),
		httpserver.WithLogger(log),
		httpserver.WithShutdownHook(deps.close),
	)

	log.InfoContext(ctx, "starting billing service",
		slog.String("env", env.String()),
		slog.String("addr", srvCfg.Addr),
	)
	if err := srv.Run(ctx); err != nil {
		if errors.Is(err, httpserver.ErrStart) {
			// hooks only run after a clean start
			return errors.Join(err, deps.close(context.WithoutCancel(ctx)))
		}
		return err
	}
	return nil
}
