// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package invocation records faked workflow dispatches and serves canned
// activity outcomes to the worker before real execution.
//
// Entries live in a Store under three key families:
//
//	workflow_dispatch::<workflow>  ordered argument lists of faked starts
//	workflow::<workflow>           workflow mocks
//	activity::<activity>           activity results and failures
//
// Workflow mock handlers are Go functions and cannot leave the process. The
// store holds a token for them; a process without the handler treats the mock
// as absent. Data-only mocks (see Fixtures) are visible to every process.
package invocation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/temporal"
	"google.golang.org/protobuf/proto"

	"github.com/slnw/laravel-temporal/internal/config"
	"github.com/slnw/laravel-temporal/internal/logger"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetInvocationLogger().With().Str("component", "cache").Logger()
		log = &l
	})
	return log
}

// WorkflowHandler runs in place of a mocked workflow. It receives the
// arguments passed to ExecuteWorkflow.
type WorkflowHandler func(ctx context.Context, args ...any) (any, error)

// Option configures a Cache.
type Option func(*Cache)

// WithDataConverter sets the converter used to encode results and dispatch
// arguments.
func WithDataConverter(dc converter.DataConverter) Option {
	return func(c *Cache) {
		if dc != nil {
			c.dc = dc
		}
	}
}

// WithLogger overrides the package logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) {
		c.log = &l
	}
}

// Cache is the invocation interception cache. It is safe for concurrent use.
type Cache struct {
	store Store
	dc    converter.DataConverter
	log   *zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]WorkflowHandler
}

// New returns a Cache backed by store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:    store,
		dc:       converter.GetDefaultDataConverter(),
		handlers: make(map[string]WorkflowHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open builds the store described by cfg and returns a Cache on top of it.
// Redis stores are pinged before returning.
func Open(ctx context.Context, cfg config.CacheConfig, opts ...Option) (*Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return New(NewMemoryStore(), opts...), nil
	case "redis":
		store, err := NewRedisStoreWithOptions(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}, cfg.Name)
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Address, err)
		}
		return New(store, opts...), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func (c *Cache) logger() *zerolog.Logger {
	if c.log != nil {
		return c.log
	}
	return getLog()
}

// DataConverter returns the converter used by the cache.
func (c *Cache) DataConverter() converter.DataConverter {
	return c.dc
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Clear removes every dispatch log, mock and outcome.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear invocation cache: %w", err)
	}
	c.mu.Lock()
	clear(c.handlers)
	c.mu.Unlock()
	return nil
}

// RecordWorkflowDispatch appends args to the dispatch log of workflow.
func (c *Cache) RecordWorkflowDispatch(ctx context.Context, workflow string, args ...any) error {
	payloads, err := c.dc.ToPayloads(args...)
	if err != nil {
		return fmt.Errorf("encode dispatch arguments for %s: %w", workflow, err)
	}
	if payloads == nil {
		payloads = &commonpb.Payloads{}
	}
	data, err := proto.Marshal(payloads)
	if err != nil {
		return fmt.Errorf("marshal dispatch arguments for %s: %w", workflow, err)
	}
	if err := c.store.Append(ctx, dispatchKey(workflow), data); err != nil {
		return fmt.Errorf("record dispatch of %s: %w", workflow, err)
	}
	c.logger().Debug().Str("workflow", workflow).Int("args", len(args)).Msg("Recorded workflow dispatch")
	return nil
}

// GetWorkflowDispatches returns the dispatches of workflow in the order they
// were recorded.
func (c *Cache) GetWorkflowDispatches(ctx context.Context, workflow string) ([]Dispatch, error) {
	items, err := c.store.List(ctx, dispatchKey(workflow))
	if err != nil {
		return nil, fmt.Errorf("list dispatches of %s: %w", workflow, err)
	}
	dispatches := make([]Dispatch, 0, len(items))
	for i, item := range items {
		payloads := &commonpb.Payloads{}
		if err := proto.Unmarshal(item, payloads); err != nil {
			return nil, fmt.Errorf("dispatch %d of %s: %w", i, workflow, err)
		}
		dispatches = append(dispatches, Dispatch{payloads: payloads, dc: c.dc})
	}
	return dispatches, nil
}

// SaveWorkflowMock registers handler for workflow, replacing any previous mock.
func (c *Cache) SaveWorkflowMock(ctx context.Context, workflow string, handler WorkflowHandler) error {
	if handler == nil {
		return errors.New("workflow handler is nil")
	}
	token := uuid.NewString()
	if err := c.put(ctx, workflowKey(workflow), &record{Kind: kindHandler, Token: token}); err != nil {
		return err
	}

	c.mu.Lock()
	c.handlers[token] = handler
	c.mu.Unlock()
	return nil
}

// SaveWorkflowResult mocks workflow with a fixed result.
func (c *Cache) SaveWorkflowResult(ctx context.Context, workflow string, value any) error {
	rec, err := resultRecord(c.dc, value)
	if err != nil {
		return fmt.Errorf("workflow %s: %w", workflow, err)
	}
	return c.put(ctx, workflowKey(workflow), rec)
}

// SaveWorkflowFailure mocks workflow with a fixed failure.
func (c *Cache) SaveWorkflowFailure(ctx context.Context, workflow string, failure error) error {
	return c.put(ctx, workflowKey(workflow), failureFrom(failure))
}

// GetWorkflowMock returns the mock registered for workflow. The boolean is
// false when no mock exists or its handler belongs to another process.
func (c *Cache) GetWorkflowMock(ctx context.Context, workflow string) (WorkflowHandler, bool, error) {
	rec, err := c.get(ctx, workflowKey(workflow))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	switch rec.Kind {
	case kindHandler:
		c.mu.RLock()
		handler, ok := c.handlers[rec.Token]
		c.mu.RUnlock()
		if !ok {
			c.logger().Debug().Str("workflow", workflow).Msg("Workflow mock registered by another process")
		}
		return handler, ok, nil
	case kindResult, kindFailure:
		return fixedHandler(rec), true, nil
	default:
		c.logger().Warn().Str("workflow", workflow).Str("kind", string(rec.Kind)).Msg("Ignoring invalid workflow mock")
		return nil, false, nil
	}
}

// fixedHandler returns the stored result as a converter.RawValue, or the
// stored failure.
func fixedHandler(rec *record) WorkflowHandler {
	return func(context.Context, ...any) (any, error) {
		payloads, err := rec.outcome()
		if err != nil {
			return nil, err
		}
		if len(payloads.GetPayloads()) == 0 {
			return nil, nil
		}
		return converter.NewRawValue(payloads.GetPayloads()[0]), nil
	}
}

// SaveCompletion registers a canned result for activity.
func (c *Cache) SaveCompletion(ctx context.Context, activity string, value any) error {
	rec, err := resultRecord(c.dc, value)
	if err != nil {
		return fmt.Errorf("activity %s: %w", activity, err)
	}
	return c.put(ctx, activityKey(activity), rec)
}

// SaveFailure registers a canned failure for activity.
func (c *Cache) SaveFailure(ctx context.Context, activity string, failure error) error {
	return c.put(ctx, activityKey(activity), failureFrom(failure))
}

// CanHandle reports whether req is an activity invocation with a cached
// outcome. Store errors are logged and reported as false so the real
// activity runs.
func (c *Cache) CanHandle(ctx context.Context, req Request) bool {
	name, ok := activityName(req)
	if !ok {
		return false
	}
	found, err := c.store.Has(ctx, activityKey(name))
	if err != nil {
		c.logger().Error().Err(err).Str("activity", name).Msg("Failed to look up cached activity outcome")
		return false
	}
	return found
}

// Execute resolves the cached outcome of req. A failure record becomes a
// *temporal.ApplicationError; anything that is not a result or failure
// yields a non-retryable InvalidArgument error wrapping ErrInvalidCacheValue.
func (c *Cache) Execute(ctx context.Context, req Request) (*commonpb.Payloads, error) {
	name, _ := activityName(req)

	data, err := c.store.Get(ctx, activityKey(name))
	if err != nil {
		return nil, fmt.Errorf("load cached outcome of %s: %w", name, err)
	}

	var payloads *commonpb.Payloads
	rec, err := decodeRecord(data)
	if err == nil {
		payloads, err = rec.outcome()
	}
	if errors.Is(err, ErrInvalidCacheValue) {
		c.logger().Warn().Err(err).Str("activity", name).Msg("Invalid cached activity outcome")
		return nil, temporal.NewNonRetryableApplicationError(ErrInvalidCacheValue.Error(), "InvalidArgument", err)
	}
	if err != nil {
		return nil, err
	}

	c.logger().Debug().Str("activity", name).Msg("Serving cached activity result")
	return payloads, nil
}

func (c *Cache) put(ctx context.Context, key string, rec *record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string) (*record, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}
