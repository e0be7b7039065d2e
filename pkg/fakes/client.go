// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fakes provides a Temporal client that runs mocked workflows in
// process and records their dispatch.
package fakes

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"

	"github.com/slnw/laravel-temporal/internal/logger"
	"github.com/slnw/laravel-temporal/pkg/discovery"
	"github.com/slnw/laravel-temporal/pkg/invocation"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetInvocationLogger().With().Str("component", "fake_client").Logger()
		log = &l
	})
	return log
}

// ErrNoClient is returned when an unmocked workflow is started and no real
// client was supplied.
var ErrNoClient = errors.New("fakes: workflow is not mocked and no client is configured")

// FakeWorkflowClient wraps a client.Client. ExecuteWorkflow runs the mock
// registered in the invocation cache, if any, instead of starting the
// workflow. Every other method goes to the wrapped client.
type FakeWorkflowClient struct {
	client.Client
	cache *invocation.Cache
}

// NewFakeWorkflowClient returns a fake around c. c may be nil when every
// started workflow is mocked.
func NewFakeWorkflowClient(c client.Client, cache *invocation.Cache) *FakeWorkflowClient {
	return &FakeWorkflowClient{Client: c, cache: cache}
}

func (f *FakeWorkflowClient) ExecuteWorkflow(
	ctx context.Context,
	options client.StartWorkflowOptions,
	workflow interface{},
	args ...interface{},
) (client.WorkflowRun, error) {
	name, err := WorkflowName(workflow)
	if err != nil {
		return nil, err
	}

	handler, ok, err := f.cache.GetWorkflowMock(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("look up mock for %s: %w", name, err)
	}
	if !ok {
		if f.Client == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoClient, name)
		}
		return f.Client.ExecuteWorkflow(ctx, options, workflow, args...)
	}

	if err := f.cache.RecordWorkflowDispatch(ctx, name, args...); err != nil {
		return nil, err
	}

	id := options.ID
	if id == "" {
		id = uuid.NewString()
	}
	run := &FakeWorkflowRun{
		id:    id,
		runID: uuid.NewString(),
		dc:    f.cache.DataConverter(),
	}
	run.result, run.err = handler(ctx, args...)

	getLog().Debug().
		Str("workflow", name).
		Str("workflow_id", run.id).
		Bool("failed", run.err != nil).
		Msg("Ran mocked workflow")
	return run, nil
}

// WorkflowName returns the workflow type name the SDK would register for
// workflow: the string itself, or the function name without its package path.
func WorkflowName(workflow interface{}) (string, error) {
	if name, ok := workflow.(string); ok {
		if name == "" {
			return "", errors.New("fakes: empty workflow name")
		}
		return name, nil
	}

	if reflect.ValueOf(workflow).Kind() != reflect.Func {
		return "", fmt.Errorf("fakes: workflow must be a string or a function, got %T", workflow)
	}
	return discovery.Name(workflow)
}
