// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/slnw/laravel-temporal/internal/config"
	"github.com/slnw/laravel-temporal/internal/logger"
	"github.com/slnw/laravel-temporal/pkg/discovery"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetWorkerLogger().With().Str("component", "worker").Logger()
		log = &l
	})
	return log
}

// Registry is the registration surface shared by worker.Worker and the SDK
// test environment.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivity(a interface{})
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register adds every catalog entry to r. Activity structs register all of
// their exported methods.
func Register(r Registry, catalog *discovery.Catalog) {
	for _, wf := range catalog.Workflows() {
		r.RegisterWorkflowWithOptions(wf.Fn, workflow.RegisterOptions{Name: wf.Name})
	}
	for _, act := range catalog.Activities() {
		if act.IsStruct() {
			r.RegisterActivity(act.Fn)
			continue
		}
		r.RegisterActivityWithOptions(act.Fn, activity.RegisterOptions{Name: act.Name})
	}
}

// Worker represents a Temporal worker
type Worker struct {
	temporalClient client.Client
	taskQueue      string
	catalog        *discovery.Catalog
	interceptors   []interceptor.WorkerInterceptor
	config         *config.AppConfig

	newWorker func(client.Client, string, worker.Options) worker.Worker
	worker    worker.Worker
	mu        sync.Mutex
	stopped   bool
}

// NewWorker creates a worker for the catalog. Interceptors installed on the
// client apply to the worker already and must not be passed again.
func NewWorker(
	temporalClient client.Client,
	cfg *config.AppConfig,
	catalog *discovery.Catalog,
	interceptors ...interceptor.WorkerInterceptor,
) *Worker {
	return &Worker{
		temporalClient: temporalClient,
		taskQueue:      cfg.Temporal.TaskQueue,
		catalog:        catalog,
		interceptors:   interceptors,
		config:         cfg,
		newWorker:      worker.New,
	}
}

// Options returns the worker options derived from configuration.
func (w *Worker) Options() worker.Options {
	wc := w.config.Temporal.Worker
	return worker.Options{
		MaxConcurrentActivityExecutionSize:      wc.MaxConcurrentActivityExecutions,
		MaxConcurrentWorkflowTaskExecutionSize:  wc.MaxConcurrentWorkflows,
		MaxConcurrentLocalActivityExecutionSize: wc.MaxConcurrentActivityExecutions,
		WorkerActivitiesPerSecond:               wc.ActivitiesPerSecond,
		WorkerLocalActivitiesPerSecond:          wc.ActivitiesPerSecond,
		TaskQueueActivitiesPerSecond:            wc.ActivitiesPerSecond,
		Interceptors:                            w.interceptors,
	}
}

// Start registers the catalog and starts polling. It does not block.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return errors.New("cannot restart a stopped worker - create a new worker instance")
	}
	if w.worker != nil {
		getLog().Info().Msg("Worker already started")
		return nil
	}

	getLog().Info().Str("task_queue", w.taskQueue).Msg("Starting Temporal worker")

	wk := w.newWorker(w.temporalClient, w.taskQueue, w.Options())
	Register(wk, w.catalog)
	if err := wk.Start(); err != nil {
		return err
	}
	w.worker = wk

	getLog().Info().
		Strs("workflows", w.catalog.WorkflowNames()).
		Strs("activities", w.catalog.ActivityNames()).
		Int("interceptors", len(w.interceptors)).
		Msg("Temporal worker started")
	return nil
}

// Stop stops the worker gracefully. A stopped worker cannot be restarted.
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.worker == nil {
		return nil
	}
	getLog().Info().Msg("Stopping Temporal worker gracefully...")
	w.worker.Stop()
	w.worker = nil
	w.stopped = true
	getLog().Info().Msg("Temporal worker stopped")
	return nil
}
