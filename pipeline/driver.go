// Package pipeline wires the data source, the transformer, and the fan-out
// engine into the single sequential flow the inbound invocation drives:
// fetch a batch, transform it, publish it, record the wall time.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/brightleaf-data/sns-fanout/datasource"
	"github.com/brightleaf-data/sns-fanout/fanout"
	"github.com/brightleaf-data/sns-fanout/transform"
)

// Logger is the narrow logging surface the driver needs.
type Logger interface {
	Info(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}

// Recorder is the telemetry sink the driver reports batch-level counters,
// the total wall-clock histogram, and its own span to.
type Recorder interface {
	Count(ctx context.Context, name string, value int64, attrs map[string]string)
	RecordDuration(ctx context.Context, name string, d time.Duration, attrs map[string]string)
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(err error))
}

type noopRecorder struct{}

func (noopRecorder) Count(context.Context, string, int64, map[string]string)                  {}
func (noopRecorder) RecordDuration(context.Context, string, time.Duration, map[string]string) {}
func (noopRecorder) StartSpan(ctx context.Context, _ string, _ map[string]string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

// Engine is the narrow fan-out capability the driver depends on.
type Engine interface {
	Run(ctx context.Context, messages []string) fanout.PublishStats
}

// Driver sequences a single data source through a single transformer and
// fan-out engine. One Driver instance is reused across invocations.
type Driver struct {
	source    datasource.Source
	transform transform.Func
	engine    Engine
	batchSize int
	logger    Logger
	recorder  Recorder
}

// Option configures a Driver.
type Option func(*Driver)

// WithBatchSize overrides how many records are fetched per invocation.
// Defaults to 1000.
func WithBatchSize(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRecorder sets the telemetry sink. Defaults to a no-op recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) {
		if r != nil {
			d.recorder = r
		}
	}
}

// New builds a Driver over the given source, transformer, and fan-out
// engine.
func New(source datasource.Source, transformFn transform.Func, engine Engine, opts ...Option) *Driver {
	d := &Driver{
		source:    source,
		transform: transformFn,
		engine:    engine,
		batchSize: 1000,
		logger:    noopLogger{},
		recorder:  noopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle is the pipeline's single inbound entry point. It ignores event and
// ctx cancellation beyond what the data source and transport respect, and
// returns a non-nil error only for a data-source or transformer fault.
// Per-message publish failures never surface here; they live in the
// returned PublishStats the caller can log.
func (d *Driver) Handle(ctx context.Context, event any) (fanout.PublishStats, error) {
	spanCtx, endSpan := d.recorder.StartSpan(ctx, "ProcessAndPublishData", nil)
	start := time.Now()

	stats, err := d.run(spanCtx)

	d.recorder.RecordDuration(spanCtx, "total_processing_time", time.Since(start), nil)
	endSpan(err)
	return stats, err
}

func (d *Driver) run(ctx context.Context) (fanout.PublishStats, error) {
	dbCtx, endDBSpan := d.recorder.StartSpan(ctx, "DatabaseQuery", nil)
	records, err := d.source.FetchBatch(dbCtx, d.batchSize)
	endDBSpan(err)
	if err != nil {
		d.logger.Error(ctx, "data source fetch failed", "error", err)
		return fanout.PublishStats{}, fmt.Errorf("pipeline: fetch batch: %w", err)
	}
	d.recorder.Count(ctx, "data_items_retrieved", int64(len(records)), nil)

	_, endTransformSpan := d.recorder.StartSpan(ctx, "TransformData", nil)
	messages, err := d.transform(records)
	endTransformSpan(err)
	if err != nil {
		d.logger.Error(ctx, "transform failed", "error", err)
		return fanout.PublishStats{}, fmt.Errorf("pipeline: transform batch: %w", err)
	}
	d.recorder.Count(ctx, "data_items_transformed", int64(len(messages)), nil)

	stats := d.engine.Run(ctx, messages)
	d.logger.Info(ctx, "batch published",
		"fetched", len(records),
		"transformed", len(messages),
		"success", stats.SuccessCount,
		"failure", stats.FailureCount,
	)
	return stats, nil
}
