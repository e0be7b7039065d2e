// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry wires OpenTelemetry tracing into Temporal clients and
// workers.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"

	"github.com/slnw/laravel-temporal/internal/config"
	"github.com/slnw/laravel-temporal/internal/logger"
)

// InstrumentationName is the OTel instrumentation scope name.
const InstrumentationName = "github.com/slnw/laravel-temporal"

// Tracing holds the tracer provider and the Temporal interceptor built on it.
// A disabled Tracing has a nil Interceptor and a no-op Shutdown.
type Tracing struct {
	Provider    trace.TracerProvider
	Interceptor interceptor.Interceptor
	shutdown    func(context.Context) error
}

// Interceptors returns the client interceptors to install, if any.
func (t *Tracing) Interceptors() []interceptor.ClientInterceptor {
	if t == nil || t.Interceptor == nil {
		return nil
	}
	return []interceptor.ClientInterceptor{t.Interceptor}
}

// WorkerInterceptors returns the worker interceptors to install, if any.
func (t *Tracing) WorkerInterceptors() []interceptor.WorkerInterceptor {
	if t == nil || t.Interceptor == nil {
		return nil
	}
	return []interceptor.WorkerInterceptor{t.Interceptor}
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

// Setup builds tracing from cfg. When tracing is disabled it returns an empty
// Tracing and installs nothing globally.
func Setup(ctx context.Context, cfg config.TracingConfig) (*Tracing, error) {
	log := logger.GetTemporalLogger()
	if !cfg.Enabled {
		log.Debug().Msg("Tracing disabled")
		return &Tracing{}, nil
	}

	tp, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracing, err := NewTracing(tp)
	if err != nil {
		return nil, errors.Join(err, tp.Shutdown(ctx))
	}
	tracing.shutdown = tp.Shutdown

	log.Info().Str("endpoint", cfg.Endpoint).Str("service", cfg.ServiceName).Msg("Tracing enabled")
	return tracing, nil
}

// NewTracing builds the Temporal tracing interceptor on tp. The caller owns
// tp.
func NewTracing(tp trace.TracerProvider) (*Tracing, error) {
	ti, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: tp.Tracer(InstrumentationName),
	})
	if err != nil {
		return nil, fmt.Errorf("configure tracing interceptor: %w", err)
	}
	return &Tracing{Provider: tp, Interceptor: ti}, nil
}

// NewTracerProvider creates a TracerProvider that exports spans via OTLP/HTTP.
func NewTracerProvider(ctx context.Context, cfg config.TracingConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
