// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements invocationctl, the maintenance tool for the shared
// invocation cache.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/slnw/laravel-temporal/internal/config"
	"github.com/slnw/laravel-temporal/internal/logger"
	"github.com/slnw/laravel-temporal/pkg/dataconverter"
	"github.com/slnw/laravel-temporal/pkg/invocation"
)

const (
	appName    = "invocationctl"
	appVersion = "0.1.0"

	commandTimeout = 30 * time.Second
)

// Execute runs the command named by args[0] and writes its output to out.
func Execute(args []string, out io.Writer) error {
	if len(args) < 1 {
		return printUsage(out)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "clear":
		return clearCommand(rest, out)
	case "dispatches":
		return dispatchesCommand(rest, out)
	case "seed":
		return seedCommand(rest, out)
	case "start":
		return startCommand(rest, out)
	case "status":
		return statusCommand(rest, out)
	case "version":
		fmt.Fprintf(out, "%s version %s\n", appName, appVersion)
		return nil
	case "help", "-h", "--help":
		return printUsage(out)
	default:
		fmt.Fprintf(out, "Unknown command: %s\n\n", command)
		_ = printUsage(out)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(out io.Writer) error {
	fmt.Fprintf(out, `%s - inspect and seed the Temporal invocation cache

Usage:
  %s <command> [flags] [arguments]

Commands:
  clear                        Remove all dispatch logs, mocks and outcomes
  dispatches <workflow>        List recorded dispatches of a workflow
  seed <fixtures.yaml>         Load data-only mocks into the cache
  start <workflow> [json...]   Start a workflow, running its mock if one is seeded
  status <workflow-id>         Show the status of a workflow execution
  version                      Print version information
  help                         Show this help message

Every command accepts --config (default config.yaml).

Examples:
  %s seed testdata/mocks.yaml
  %s start ShipOrderWorkflow '"order-1"'
  %s dispatches ShipOrderWorkflow

`, appName, appName, appName, appName, appName)
	return nil
}

// env is the state shared by commands: configuration, logging and the cache.
type env struct {
	cfg   *config.AppConfig
	cache *invocation.Cache
}

func newFlagSet(name string, out io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	return fs, configPath
}

// openEnv loads configuration, logging and the cache. Commands that read or
// write cache contents pass shared, since a memory cache would vanish with
// this process.
func openEnv(ctx context.Context, configPath string, shared bool) (*env, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if shared && !sharedDriver(cfg.Cache.Driver) {
		return nil, fmt.Errorf("cache commands need a shared driver (redis), cache.driver is %q", cfg.Cache.Driver)
	}
	if err := logger.Initialize(&cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cache, err := invocation.Open(ctx, cfg.Cache,
		invocation.WithDataConverter(dataconverter.NewDataConverter(dataconverter.Default)))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open invocation cache: %w", err), logger.CloseGlobal())
	}
	return &env{cfg: cfg, cache: cache}, nil
}

func sharedDriver(driver string) bool {
	return driver == "redis"
}

func (e *env) Close() error {
	return errors.Join(e.cache.Close(), logger.CloseGlobal())
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}
