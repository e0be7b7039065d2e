// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package invocation

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/interceptor"
)

// ActivityInterceptor is a worker interceptor that serves cached activity
// outcomes instead of running the activity.
type ActivityInterceptor struct {
	interceptor.WorkerInterceptorBase
	cache    *Cache
	nameFunc func(ctx context.Context) string
}

var _ interceptor.WorkerInterceptor = (*ActivityInterceptor)(nil)

// NewActivityInterceptor returns an interceptor consulting cache.
func NewActivityInterceptor(cache *Cache) *ActivityInterceptor {
	return &ActivityInterceptor{cache: cache, nameFunc: activityTypeName}
}

func activityTypeName(ctx context.Context) string {
	return activity.GetInfo(ctx).ActivityType.Name
}

func (w *ActivityInterceptor) InterceptActivity(
	ctx context.Context,
	next interceptor.ActivityInboundInterceptor,
) interceptor.ActivityInboundInterceptor {
	i := &activityInbound{root: w}
	i.Next = next
	return i
}

type activityInbound struct {
	interceptor.ActivityInboundInterceptorBase
	root *ActivityInterceptor
}

func (a *activityInbound) ExecuteActivity(ctx context.Context, in *interceptor.ExecuteActivityInput) (interface{}, error) {
	req := ActivityRequest(a.root.nameFunc(ctx))
	if !a.root.cache.CanHandle(ctx, req) {
		return a.Next.ExecuteActivity(ctx, in)
	}

	payloads, err := a.root.cache.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(payloads.GetPayloads()) == 0 {
		return nil, nil
	}
	return converter.NewRawValue(payloads.GetPayloads()[0]), nil
}
