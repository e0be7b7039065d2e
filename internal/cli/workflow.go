// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/slnw/laravel-temporal/internal/temporal"
)

func (e *env) client() (*temporal.Client, error) {
	return temporal.NewClient(e.cfg.Temporal, temporal.Options{
		DataConverter: e.cache.DataConverter(),
		Lazy:          true,
	})
}

func startCommand(args []string, out io.Writer) error {
	fs, configPath := newFlagSet("start", out)
	workflowID := fs.String("id", "", "Workflow ID (generated when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: start [--config path] [--id id] <workflow> [json-arg...]")
	}

	workflow := fs.Arg(0)
	wfArgs := make([]any, 0, fs.NArg()-1)
	for _, raw := range fs.Args()[1:] {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return fmt.Errorf("argument %q is not valid JSON: %w", raw, err)
		}
		wfArgs = append(wfArgs, v)
	}

	ctx, cancel := withTimeout()
	defer cancel()

	e, err := openEnv(ctx, *configPath, false)
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.client()
	if err != nil {
		return err
	}
	defer c.Close()

	run, err := c.WithInvocationCache(e.cache).StartWorkflow(ctx, *workflowID, workflow, wfArgs...)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Started %s (workflow %s, run %s)\n", workflow, run.GetID(), run.GetRunID())

	var result any
	if err := run.Get(ctx, &result); err != nil {
		return fmt.Errorf("workflow %s failed: %w", run.GetID(), err)
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Result: %s\n", encoded)
	return nil
}

func statusCommand(args []string, out io.Writer) error {
	fs, configPath := newFlagSet("status", out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: status [--config path] <workflow-id>")
	}

	ctx, cancel := withTimeout()
	defer cancel()

	e, err := openEnv(ctx, *configPath, false)
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.client()
	if err != nil {
		return err
	}
	defer c.Close()

	status, err := c.GetWorkflowStatus(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", fs.Arg(0), status)
	return nil
}
