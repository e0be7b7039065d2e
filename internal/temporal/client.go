// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package temporal wraps the Temporal client with the typed data converter,
// tracing and the optional fake workflow client.
package temporal

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/interceptor"

	"github.com/slnw/laravel-temporal/internal/config"
	"github.com/slnw/laravel-temporal/internal/logger"
	"github.com/slnw/laravel-temporal/pkg/fakes"
	"github.com/slnw/laravel-temporal/pkg/invocation"
)

// WorkflowStatus represents the current status of a workflow
type WorkflowStatus int

const (
	WorkflowStatusUnknown WorkflowStatus = iota
	WorkflowStatusRunning
	WorkflowStatusCompleted
	WorkflowStatusFailed
	WorkflowStatusCanceled
	WorkflowStatusTerminated
	WorkflowStatusTimedOut
)

var statusNames = map[WorkflowStatus]string{
	WorkflowStatusRunning:    "running",
	WorkflowStatusCompleted:  "completed",
	WorkflowStatusFailed:     "failed",
	WorkflowStatusCanceled:   "canceled",
	WorkflowStatusTerminated: "terminated",
	WorkflowStatusTimedOut:   "timed_out",
}

func (s WorkflowStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MapWorkflowExecutionStatus maps Temporal's execution status to WorkflowStatus.
func MapWorkflowExecutionStatus(status enums.WorkflowExecutionStatus) WorkflowStatus {
	switch status {
	case enums.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return WorkflowStatusRunning
	case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return WorkflowStatusCompleted
	case enums.WORKFLOW_EXECUTION_STATUS_FAILED:
		return WorkflowStatusFailed
	case enums.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return WorkflowStatusCanceled
	case enums.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return WorkflowStatusTerminated
	case enums.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return WorkflowStatusTimedOut
	default:
		return WorkflowStatusUnknown
	}
}

var (
	temporalLog     *zerolog.Logger
	temporalLogOnce sync.Once
)

func getTemporalLog() *zerolog.Logger {
	temporalLogOnce.Do(func() {
		l := logger.GetTemporalLogger().With().Str("component", "client").Logger()
		temporalLog = &l
	})
	return temporalLog
}

// Options are the client settings not carried by config.TemporalConfig.
type Options struct {
	DataConverter converter.DataConverter
	Interceptors  []interceptor.ClientInterceptor
	// Lazy defers the connection to the first call that needs the server.
	Lazy bool
}

// Client wraps the Temporal client and provides additional functionality
type Client struct {
	temporalClient client.Client
	namespace      string
	taskQueue      string
}

// NewClient connects to Temporal using cfg.
func NewClient(cfg config.TemporalConfig, opts Options) (*Client, error) {
	clientOpts := client.Options{
		HostPort:      cfg.HostPort,
		Namespace:     cfg.Namespace,
		Logger:        logger.GetTemporalLogAdapter("temporal"),
		DataConverter: opts.DataConverter,
		Interceptors:  opts.Interceptors,
	}

	dial := client.Dial
	if opts.Lazy {
		dial = client.NewLazyClient
	}
	temporalClient, err := dial(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}

	getTemporalLog().Info().Bool("lazy", opts.Lazy).Msgf("Temporal client for %s, namespace: %s", cfg.HostPort, cfg.Namespace)
	return Wrap(temporalClient, cfg.Namespace, cfg.TaskQueue), nil
}

// Wrap returns a Client around an existing Temporal client.
func Wrap(temporalClient client.Client, namespace, taskQueue string) *Client {
	return &Client{
		temporalClient: temporalClient,
		namespace:      namespace,
		taskQueue:      taskQueue,
	}
}

// WithInvocationCache returns a Client whose workflow starts run the mocks
// held by cache. Unmocked workflows still reach Temporal.
func (c *Client) WithInvocationCache(cache *invocation.Cache) *Client {
	return Wrap(fakes.NewFakeWorkflowClient(c.temporalClient, cache), c.namespace, c.taskQueue)
}

// GetTemporalClient returns the underlying Temporal client
func (c *Client) GetTemporalClient() client.Client {
	return c.temporalClient
}

// GetTaskQueue returns the task queue name
func (c *Client) GetTaskQueue() string {
	return c.taskQueue
}

// StartWorkflow starts a workflow on the client's task queue. A workflow ID
// may be reused only after a failed run.
func (c *Client) StartWorkflow(ctx context.Context, workflowID string, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	options := client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                c.taskQueue,
		WorkflowIDReusePolicy:    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
		WorkflowIDConflictPolicy: enums.WORKFLOW_ID_CONFLICT_POLICY_FAIL,
	}

	run, err := c.temporalClient.ExecuteWorkflow(ctx, options, workflow, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	getTemporalLog().Info().Msgf("Started workflow %v with ID: %s", workflow, run.GetID())
	return run, nil
}

// GetWorkflowStatus returns the current status of a workflow by ID.
func (c *Client) GetWorkflowStatus(ctx context.Context, workflowID string) (WorkflowStatus, error) {
	desc, err := c.temporalClient.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return WorkflowStatusUnknown, fmt.Errorf("failed to describe workflow: %w", err)
	}
	return MapWorkflowExecutionStatus(desc.GetWorkflowExecutionInfo().GetStatus()), nil
}

// CancelWorkflow requests cancellation of a running workflow.
func (c *Client) CancelWorkflow(ctx context.Context, workflowID string) error {
	if err := c.temporalClient.CancelWorkflow(ctx, workflowID, ""); err != nil {
		return fmt.Errorf("failed to cancel workflow: %w", err)
	}
	getTemporalLog().Info().Msgf("Cancelled workflow %s", workflowID)
	return nil
}

// Close closes the Temporal client connection
func (c *Client) Close() error {
	if c.temporalClient != nil {
		c.temporalClient.Close()
		getTemporalLog().Info().Msg("Temporal client closed")
	}
	return nil
}
