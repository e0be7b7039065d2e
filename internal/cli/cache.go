// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/slnw/laravel-temporal/pkg/invocation"
)

func clearCommand(args []string, out io.Writer) error {
	fs, configPath := newFlagSet("clear", out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := withTimeout()
	defer cancel()

	e, err := openEnv(ctx, *configPath, true)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.cache.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cleared invocation cache %q (%s)\n", e.cfg.Cache.Name, e.cfg.Cache.Driver)
	return nil
}

func dispatchesCommand(args []string, out io.Writer) error {
	fs, configPath := newFlagSet("dispatches", out)
	asJSON := fs.Bool("json", false, "Print one JSON array of argument lists")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: dispatches [--config path] [--json] <workflow>")
	}
	workflow := fs.Arg(0)

	ctx, cancel := withTimeout()
	defer cancel()

	e, err := openEnv(ctx, *configPath, true)
	if err != nil {
		return err
	}
	defer e.Close()

	dispatches, err := e.cache.GetWorkflowDispatches(ctx, workflow)
	if err != nil {
		return err
	}

	all := make([][]any, 0, len(dispatches))
	for i, d := range dispatches {
		args, err := decodeArgs(d)
		if err != nil {
			return fmt.Errorf("dispatch %d: %w", i, err)
		}
		all = append(all, args)
	}

	if *asJSON {
		return json.NewEncoder(out).Encode(all)
	}
	if len(all) == 0 {
		fmt.Fprintf(out, "No dispatches recorded for %s.\n", workflow)
		return nil
	}
	fmt.Fprintf(out, "%d dispatch(es) of %s:\n", len(all), workflow)
	for i, args := range all {
		encoded, err := json.Marshal(args)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  #%d  %s\n", i+1, encoded)
	}
	return nil
}

// decodeArgs decodes each recorded argument into its generic JSON shape.
func decodeArgs(d invocation.Dispatch) ([]any, error) {
	values := make([]any, d.Len())
	ptrs := make([]any, d.Len())
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := d.Get(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

func seedCommand(args []string, out io.Writer) error {
	fs, configPath := newFlagSet("seed", out)
	clearFirst := fs.Bool("clear", false, "Clear the cache before seeding")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: seed [--config path] [--clear] <fixtures.yaml>")
	}

	fixtures, err := invocation.LoadFixtures(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout()
	defer cancel()

	e, err := openEnv(ctx, *configPath, true)
	if err != nil {
		return err
	}
	defer e.Close()

	if *clearFirst {
		if err := e.cache.Clear(ctx); err != nil {
			return err
		}
	}
	if err := fixtures.Apply(ctx, e.cache); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d activity and %d workflow mock(s)\n", len(fixtures.Activities), len(fixtures.Workflows))
	return nil
}
