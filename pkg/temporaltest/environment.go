// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package temporaltest gives tests an isolated invocation cache, the typed
// data converter and a fake workflow client. Each Environment belongs to one
// test and is torn down with it.
package temporaltest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/worker"

	"github.com/slnw/laravel-temporal/internal/temporal/workers"
	"github.com/slnw/laravel-temporal/pkg/dataconverter"
	"github.com/slnw/laravel-temporal/pkg/discovery"
	"github.com/slnw/laravel-temporal/pkg/fakes"
	"github.com/slnw/laravel-temporal/pkg/invocation"
)

type options struct {
	cache    *invocation.Cache
	client   client.Client
	registry *dataconverter.Registry
}

// Option configures an Environment.
type Option func(*options)

// WithCache uses cache instead of a fresh memory-backed one. The caller keeps
// ownership; the environment only clears it on cleanup.
func WithCache(cache *invocation.Cache) Option {
	return func(o *options) { o.cache = cache }
}

// WithClient sets the client that unmocked workflow starts go to.
func WithClient(c client.Client) Option {
	return func(o *options) { o.client = c }
}

// WithRegistry sets the payload converter registry.
func WithRegistry(reg *dataconverter.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// Environment is the per-test Temporal fixture.
type Environment struct {
	Cache         *invocation.Cache
	Client        *fakes.FakeWorkflowClient
	DataConverter converter.DataConverter

	t      testing.TB
	assert assert.TestingT
}

// NewEnvironment builds an Environment and registers its teardown with
// t.Cleanup.
func NewEnvironment(t testing.TB, opts ...Option) *Environment {
	t.Helper()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	dc := dataconverter.NewDataConverter(o.registry)
	cache := o.cache
	owned := cache == nil
	if owned {
		cache = invocation.New(invocation.NewMemoryStore(), invocation.WithDataConverter(dc))
	} else {
		dc = cache.DataConverter()
	}

	t.Cleanup(func() {
		if err := cache.Clear(context.Background()); err != nil {
			t.Errorf("clear invocation cache: %v", err)
		}
		if owned {
			_ = cache.Close()
		}
	})

	return &Environment{
		Cache:         cache,
		Client:        fakes.NewFakeWorkflowClient(o.client, cache),
		DataConverter: dc,
		t:             t,
		assert:        t,
	}
}

func (e *Environment) must(err error) {
	if err != nil {
		e.t.Helper()
		e.t.Fatalf("temporaltest: %v", err)
	}
}

// MockWorkflow runs handler whenever Client starts workflow.
func (e *Environment) MockWorkflow(workflow string, handler invocation.WorkflowHandler) {
	e.t.Helper()
	e.must(e.Cache.SaveWorkflowMock(context.Background(), workflow, handler))
}

// MockWorkflowResult makes workflow complete with value.
func (e *Environment) MockWorkflowResult(workflow string, value any) {
	e.t.Helper()
	e.must(e.Cache.SaveWorkflowResult(context.Background(), workflow, value))
}

// MockActivityResult makes activity return value without running.
func (e *Environment) MockActivityResult(activity string, value any) {
	e.t.Helper()
	e.must(e.Cache.SaveCompletion(context.Background(), activity, value))
}

// MockActivityFailure makes activity fail with err without running.
func (e *Environment) MockActivityFailure(activity string, err error) {
	e.t.Helper()
	e.must(e.Cache.SaveFailure(context.Background(), activity, err))
}

// Dispatches returns the recorded starts of workflow.
func (e *Environment) Dispatches(workflow string) []invocation.Dispatch {
	e.t.Helper()
	dispatches, err := e.Cache.GetWorkflowDispatches(context.Background(), workflow)
	e.must(err)
	return dispatches
}

// AssertWorkflowDispatched asserts that workflow was started at least once
// with arguments accepted by every matcher.
func (e *Environment) AssertWorkflowDispatched(workflow string, matchers ...func(invocation.Dispatch) bool) bool {
	e.t.Helper()
	for _, d := range e.Dispatches(workflow) {
		if matchesAll(d, matchers) {
			return true
		}
	}
	return assert.Fail(e.assert, fmt.Sprintf("workflow %s was not dispatched with the expected arguments", workflow))
}

// AssertWorkflowDispatchedTimes asserts the number of starts of workflow.
func (e *Environment) AssertWorkflowDispatchedTimes(workflow string, times int) bool {
	e.t.Helper()
	return assert.Len(e.assert, e.Dispatches(workflow), times, "dispatches of %s", workflow)
}

// AssertWorkflowNotDispatched asserts that workflow was never started.
func (e *Environment) AssertWorkflowNotDispatched(workflow string) bool {
	e.t.Helper()
	return assert.Empty(e.assert, e.Dispatches(workflow), "workflow %s was dispatched", workflow)
}

func matchesAll(d invocation.Dispatch, matchers []func(invocation.Dispatch) bool) bool {
	for _, m := range matchers {
		if !m(d) {
			return false
		}
	}
	return true
}

// NewWorkflowTestEnvironment returns an SDK test environment with the
// catalog registered, the environment's data converter installed and
// activities served from the cache when mocked.
func (e *Environment) NewWorkflowTestEnvironment(suite *testsuite.WorkflowTestSuite, catalog *discovery.Catalog) *testsuite.TestWorkflowEnvironment {
	env := suite.NewTestWorkflowEnvironment()
	env.SetDataConverter(e.DataConverter)
	env.SetWorkerOptions(worker.Options{
		Interceptors: []interceptor.WorkerInterceptor{invocation.NewActivityInterceptor(e.Cache)},
	})
	if catalog != nil {
		workers.Register(env, catalog)
	}
	return env
}
