// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/interceptor"

	"github.com/slnw/laravel-temporal/internal/config"
	"github.com/slnw/laravel-temporal/internal/logger"
	"github.com/slnw/laravel-temporal/internal/telemetry"
	"github.com/slnw/laravel-temporal/internal/temporal"
	"github.com/slnw/laravel-temporal/internal/temporal/workers"
	"github.com/slnw/laravel-temporal/pkg/dataconverter"
	"github.com/slnw/laravel-temporal/pkg/discovery"
	"github.com/slnw/laravel-temporal/pkg/invocation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.CloseGlobal(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing logger: %v\n", err)
		}
	}()

	log := logger.GetWorkerLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to flush traces")
		}
	}()

	dc := dataconverter.NewDataConverter(dataconverter.Default)

	// Tracing is installed on the client; workers created from it inherit it.
	var workerInterceptors []interceptor.WorkerInterceptor
	if cfg.Temporal.Worker.InterceptInvocations {
		cache, err := invocation.Open(ctx, cfg.Cache, invocation.WithDataConverter(dc))
		if err != nil {
			return fmt.Errorf("failed to open invocation cache: %w", err)
		}
		defer cache.Close()

		if cfg.Cache.Fixtures != "" {
			fixtures, err := invocation.LoadFixtures(cfg.Cache.Fixtures)
			if err != nil {
				return err
			}
			if err := fixtures.Apply(ctx, cache); err != nil {
				return err
			}
			log.Info().Str("fixtures", cfg.Cache.Fixtures).Msg("Seeded invocation cache")
		}
		workerInterceptors = append(workerInterceptors, invocation.NewActivityInterceptor(cache))
		log.Warn().Str("driver", cfg.Cache.Driver).Msg("Activity invocations are intercepted by the invocation cache")
	}

	catalog, err := discovery.Resolve(cfg.Temporal.Workflows, cfg.Temporal.Activities)
	if err != nil {
		return err
	}

	client, err := temporal.NewClient(cfg.Temporal, temporal.Options{
		DataConverter: dc,
		Interceptors:  tracing.Interceptors(),
	})
	if err != nil {
		return err
	}
	defer client.Close()

	w := workers.NewWorker(client.GetTemporalClient(), cfg, catalog, workerInterceptors...)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	log.Info().Msg("Worker running, waiting for shutdown signal")
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, stopping worker...")
	return w.Stop()
}
