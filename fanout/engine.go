// Package fanout implements the bounded-channel producer/consumer stage
// that drains a finite batch of messages through a pool of publishing
// workers, aggregating per-message outcomes and observing backpressure.
package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/brightleaf-data/sns-fanout/outcome"
)

// channelCapacity bounds the in-flight message channel. The producer
// blocks (backpressure) rather than dropping once it is full.
const channelCapacity = 1000

// backpressureThreshold is the producer wait above which the wait is added
// to the aggregate backpressure_ms accumulator; shorter waits are noise.
const backpressureThreshold = 5 * time.Millisecond

const (
	minWorkers        = 1
	maxWorkers        = 20
	messagesPerWorker = 100
)

// Publisher is the narrow capability FanOutEngine needs from a message
// publisher: a single-message publish call returning a categorized
// Outcome. resilientpublisher.ResilientPublisher satisfies this directly.
type Publisher interface {
	Publish(ctx context.Context, message string) outcome.Outcome[string]
}

// Recorder is the telemetry sink FanOutEngine reports aggregate stats to.
type Recorder interface {
	Count(ctx context.Context, name string, value int64, attrs map[string]string)
	RecordDuration(ctx context.Context, name string, d time.Duration, attrs map[string]string)
}

type noopRecorder struct{}

func (noopRecorder) Count(context.Context, string, int64, map[string]string)                  {}
func (noopRecorder) RecordDuration(context.Context, string, time.Duration, map[string]string) {}

// Logger is the narrow logging surface FanOutEngine needs to report
// per-message publish failures and recovered publisher panics.
type Logger interface {
	Error(ctx context.Context, msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Error(context.Context, string, ...any) {}

// PublishStats aggregates the outcome of a single Run across every worker.
type PublishStats struct {
	SuccessCount   int
	FailureCount   int
	BackpressureMS int64
}

// Engine drives a finite batch of messages through a bounded-channel
// worker pool. An Engine holds no per-run state, so one instance may serve
// any number of Runs.
type Engine struct {
	publisher Publisher
	recorder  Recorder
	logger    Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the telemetry sink. Defaults to a no-op recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds a FanOutEngine over the given publisher.
func New(publisher Publisher, opts ...Option) *Engine {
	e := &Engine{publisher: publisher, recorder: noopRecorder{}, logger: noopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// workerCount implements the pool-sizing rule:
// clamp(len(messages)/100, 1, 20).
func workerCount(n int) int {
	w := n / messagesPerWorker
	if w < minWorkers {
		w = minWorkers
	}
	if w > maxWorkers {
		w = maxWorkers
	}
	return w
}

// Run drains messages through worker_count workers, publishing each
// through the wrapped Publisher, and returns the aggregated PublishStats.
// Run always completes once every message has produced a terminal Outcome.
// No per-message failure, including a panic recovered from the publisher,
// aborts the batch.
func (e *Engine) Run(ctx context.Context, messages []string) PublishStats {
	if len(messages) == 0 {
		return PublishStats{}
	}

	workers := workerCount(len(messages))
	ch := make(chan string, channelCapacity)

	tallies := make([]workerTally, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(idx int) {
			defer wg.Done()
			e.worker(ctx, idx, ch, &tallies[idx])
		}(w)
	}

	var backpressureNanos int64
	for _, msg := range messages {
		waitStart := time.Now()
		ch <- msg
		waited := time.Since(waitStart)
		if waited > backpressureThreshold {
			backpressureNanos += waited.Nanoseconds()
		}
	}
	close(ch)

	wg.Wait()

	stats := PublishStats{}
	for _, t := range tallies {
		stats.SuccessCount += t.success
		stats.FailureCount += t.failure
	}
	stats.BackpressureMS = backpressureNanos / int64(time.Millisecond)

	e.recorder.Count(ctx, "publish_stats", int64(stats.SuccessCount), map[string]string{"result": "success"})
	e.recorder.Count(ctx, "publish_stats", int64(stats.FailureCount), map[string]string{"result": "failure"})
	e.recorder.RecordDuration(ctx, "channel_backpressure_time", time.Duration(backpressureNanos), nil)

	return stats
}

// workerTally is a worker-local success/failure pair. Aggregation happens
// only after every worker has terminated, so no synchronization is needed
// here.
type workerTally struct {
	success int
	failure int
}

// worker drains ch until it is closed, publishing each message and
// tallying its outcome locally. A panic inside the publisher is recovered
// and counted as a failure so a single bad message can never terminate the
// batch abnormally. Every failure and recovered panic is logged at error
// level with the worker index and error category.
func (e *Engine) worker(ctx context.Context, idx int, ch <-chan string, t *workerTally) {
	for msg := range ch {
		if e.publishOne(ctx, idx, msg) {
			t.success++
		} else {
			t.failure++
		}
	}
}

func (e *Engine) publishOne(ctx context.Context, idx int, msg string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			e.logger.Error(ctx, "fanout worker recovered from panic",
				"worker_id", idx, "error_category", outcome.Unknown.String(), "panic", r)
		}
	}()
	out := e.publisher.Publish(ctx, msg)
	if !out.Success {
		e.logger.Error(ctx, "fanout worker publish failed",
			"worker_id", idx, "error_category", out.ErrorKind.String(), "detail", out.Detail)
	}
	return out.Success
}
