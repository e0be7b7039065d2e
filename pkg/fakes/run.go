// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package fakes

import (
	"context"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
)

// FakeWorkflowRun is the run handle of a mocked workflow. The handler has
// already completed, so Get never blocks.
type FakeWorkflowRun struct {
	id     string
	runID  string
	result any
	err    error
	dc     converter.DataConverter
}

var _ client.WorkflowRun = (*FakeWorkflowRun)(nil)

func (r *FakeWorkflowRun) GetID() string    { return r.id }
func (r *FakeWorkflowRun) GetRunID() string { return r.runID }

// Get returns the handler error, or stores the handler result in valuePtr
// after passing it through the data converter.
func (r *FakeWorkflowRun) Get(ctx context.Context, valuePtr interface{}) error {
	if r.err != nil {
		return r.err
	}
	if valuePtr == nil {
		return nil
	}

	if raw, ok := r.result.(converter.RawValue); ok {
		return r.dc.FromPayload(raw.Payload(), valuePtr)
	}
	payload, err := r.dc.ToPayload(r.result)
	if err != nil {
		return err
	}
	return r.dc.FromPayload(payload, valuePtr)
}

func (r *FakeWorkflowRun) GetWithOptions(ctx context.Context, valuePtr interface{}, _ client.WorkflowRunGetOptions) error {
	return r.Get(ctx, valuePtr)
}
