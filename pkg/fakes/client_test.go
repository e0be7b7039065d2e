// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package fakes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/slnw/laravel-temporal/pkg/dataconverter"
	"github.com/slnw/laravel-temporal/pkg/invocation"
)

// mockClient overrides the one client.Client method the fake delegates.
type mockClient struct {
	client.Client
	mock.Mock
}

func (m *mockClient) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	called := m.Called(ctx, options, workflow, args)
	if called.Get(0) == nil {
		return nil, called.Error(1)
	}
	return called.Get(0).(client.WorkflowRun), called.Error(1)
}

type shipment struct {
	OrderID string `json:"order_id"`
	Carrier string `json:"carrier"`
}

func ShipOrderWorkflow(ctx context.Context, orderID string) (shipment, error) {
	return shipment{}, nil
}

type billing struct{}

func (billing) RefundWorkflow(ctx context.Context, orderID string) error { return nil }

func newCache() *invocation.Cache {
	return invocation.New(invocation.NewMemoryStore(), invocation.WithDataConverter(dataconverter.NewDataConverter(nil)))
}

func TestWorkflowName(t *testing.T) {
	tests := []struct {
		name     string
		workflow interface{}
		want     string
		wantErr  bool
	}{
		{name: "string", workflow: "ShipOrderWorkflow", want: "ShipOrderWorkflow"},
		{name: "function", workflow: ShipOrderWorkflow, want: "ShipOrderWorkflow"},
		{name: "method value", workflow: billing{}.RefundWorkflow, want: "RefundWorkflow"},
		{name: "empty string", workflow: "", wantErr: true},
		{name: "not a function", workflow: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WorkflowName(tt.workflow)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFakeWorkflowClient_RunsMock(t *testing.T) {
	ctx := context.Background()
	cache := newCache()
	inner := &mockClient{}
	fake := NewFakeWorkflowClient(inner, cache)

	var received []any
	require.NoError(t, cache.SaveWorkflowMock(ctx, "ShipOrderWorkflow", func(_ context.Context, args ...any) (any, error) {
		received = args
		return shipment{OrderID: args[0].(string), Carrier: "ups"}, nil
	}))

	run, err := fake.ExecuteWorkflow(ctx, client.StartWorkflowOptions{ID: "ship-1"}, ShipOrderWorkflow, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "ship-1", run.GetID())
	assert.NotEmpty(t, run.GetRunID())
	assert.Equal(t, []any{"order-1"}, received)

	var got shipment
	require.NoError(t, run.Get(ctx, &got))
	assert.Equal(t, shipment{OrderID: "order-1", Carrier: "ups"}, got)

	dispatches, err := cache.GetWorkflowDispatches(ctx, "ShipOrderWorkflow")
	require.NoError(t, err)
	require.Len(t, dispatches, 1)
	var orderID string
	require.NoError(t, dispatches[0].Get(&orderID))
	assert.Equal(t, "order-1", orderID)

	inner.AssertNotCalled(t, "ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFakeWorkflowClient_GeneratesIDs(t *testing.T) {
	ctx := context.Background()
	cache := newCache()
	fake := NewFakeWorkflowClient(nil, cache)
	require.NoError(t, cache.SaveWorkflowMock(ctx, "Ping", func(context.Context, ...any) (any, error) { return "pong", nil }))

	first, err := fake.ExecuteWorkflow(ctx, client.StartWorkflowOptions{}, "Ping")
	require.NoError(t, err)
	second, err := fake.ExecuteWorkflow(ctx, client.StartWorkflowOptions{}, "Ping")
	require.NoError(t, err)

	assert.NotEmpty(t, first.GetID())
	assert.NotEqual(t, first.GetID(), second.GetID())
	assert.NotEqual(t, first.GetRunID(), second.GetRunID())

	var reply string
	require.NoError(t, second.GetWithOptions(ctx, &reply, client.WorkflowRunGetOptions{}))
	assert.Equal(t, "pong", reply)
	assert.NoError(t, second.Get(ctx, nil))
}

func TestFakeWorkflowClient_HandlerError(t *testing.T) {
	ctx := context.Background()
	cache := newCache()
	fake := NewFakeWorkflowClient(nil, cache)
	boom := errors.New("carrier unavailable")
	require.NoError(t, cache.SaveWorkflowMock(ctx, "ShipOrderWorkflow", func(context.Context, ...any) (any, error) { return nil, boom }))

	run, err := fake.ExecuteWorkflow(ctx, client.StartWorkflowOptions{}, ShipOrderWorkflow, "order-2")
	require.NoError(t, err)

	var got shipment
	assert.ErrorIs(t, run.Get(ctx, &got), boom)
}

func TestFakeWorkflowClient_FixtureMock(t *testing.T) {
	ctx := context.Background()
	cache := newCache()
	fake := NewFakeWorkflowClient(nil, cache)
	require.NoError(t, cache.SaveWorkflowResult(ctx, "ShipOrderWorkflow", shipment{OrderID: "fixed", Carrier: "dhl"}))
	require.NoError(t, cache.SaveWorkflowFailure(ctx, "RefundWorkflow", temporal.NewApplicationError("refunds disabled", "Disabled")))

	run, err := fake.ExecuteWorkflow(ctx, client.StartWorkflowOptions{}, ShipOrderWorkflow, "order-3")
	require.NoError(t, err)
	var got shipment
	require.NoError(t, run.Get(ctx, &got))
	assert.Equal(t, shipment{OrderID: "fixed", Carrier: "dhl"}, got)

	run, err = fake.ExecuteWorkflow(ctx, client.StartWorkflowOptions{}, billing{}.RefundWorkflow, "order-3")
	require.NoError(t, err)
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, run.Get(ctx, nil), &appErr)
	assert.Equal(t, "Disabled", appErr.Type())
}

func TestFakeWorkflowClient_DelegatesUnmocked(t *testing.T) {
	ctx := context.Background()
	cache := newCache()
	inner := &mockClient{}
	fake := NewFakeWorkflowClient(inner, cache)

	opts := client.StartWorkflowOptions{ID: "real-1", TaskQueue: "default"}
	inner.On("ExecuteWorkflow", ctx, opts, "ShipOrderWorkflow", []interface{}{"order-4"}).
		Return(nil, errors.New("server unavailable")).Once()

	_, err := fake.ExecuteWorkflow(ctx, opts, "ShipOrderWorkflow", "order-4")
	assert.ErrorContains(t, err, "server unavailable")
	inner.AssertExpectations(t)

	dispatches, err := cache.GetWorkflowDispatches(ctx, "ShipOrderWorkflow")
	require.NoError(t, err)
	assert.Empty(t, dispatches)
}

func TestFakeWorkflowClient_NoClient(t *testing.T) {
	fake := NewFakeWorkflowClient(nil, newCache())
	_, err := fake.ExecuteWorkflow(context.Background(), client.StartWorkflowOptions{}, "Unmocked")
	assert.ErrorIs(t, err, ErrNoClient)
}
