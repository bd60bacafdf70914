package resilientpublisher

import (
	"context"
	"time"

	"github.com/brightleaf-data/sns-fanout/internal/backoff"
)

// Logger is the narrow logging surface ResilientPublisher needs, shaped so
// callers can adapt any structured logger (zap included) without a direct
// dependency here.
type Logger interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}

// Recorder is the abstract telemetry sink ResilientPublisher emits to. The
// telemetry package's otel-backed Recorder satisfies this; tests can pass a
// counting fake.
type Recorder interface {
	Count(ctx context.Context, name string, value int64, attrs map[string]string)
	RecordDuration(ctx context.Context, name string, d time.Duration, attrs map[string]string)
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(err error))
}

type noopRecorder struct{}

func (noopRecorder) Count(context.Context, string, int64, map[string]string)                  {}
func (noopRecorder) RecordDuration(context.Context, string, time.Duration, map[string]string) {}
func (noopRecorder) StartSpan(ctx context.Context, _ string, _ map[string]string) (context.Context, func(err error)) {
	return ctx, func(error) {}
}

// Option configures a ResilientPublisher at construction time.
type Option func(*ResilientPublisher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return func(p *ResilientPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the telemetry sink. Defaults to a no-op recorder.
func WithRecorder(r Recorder) Option {
	return func(p *ResilientPublisher) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithMaxRetries overrides the number of retries after the first attempt.
// Defaults to 3 (4 total attempts); tests may lower it.
func WithMaxRetries(n int) Option {
	return func(p *ResilientPublisher) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// WithBackoff overrides the retry delay schedule. Defaults to the fixed
// 200/400/800ms schedule.
func WithBackoff(s backoff.Schedule) Option {
	return func(p *ResilientPublisher) {
		p.schedule = s
	}
}

// WithTimeout overrides the per-attempt transport timeout. Defaults to 5s.
func WithTimeout(d time.Duration) Option {
	return func(p *ResilientPublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBreakerThreshold overrides the number of consecutive retriable
// failures that trip the breaker. Defaults to 10.
func WithBreakerThreshold(n int) Option {
	return func(p *ResilientPublisher) {
		if n > 0 {
			p.breakerThreshold = n
		}
	}
}

// WithBreakerOpenDuration overrides how long the breaker stays Open before
// permitting a HalfOpen probe. Defaults to 30s.
func WithBreakerOpenDuration(d time.Duration) Option {
	return func(p *ResilientPublisher) {
		if d > 0 {
			p.breakerOpenDuration = d
		}
	}
}

// WithSleeper overrides the function used to wait out retry backoff.
// Tests substitute a non-blocking sleeper to keep the retry schedule from
// slowing down the suite.
func WithSleeper(sleep func(context.Context, time.Duration)) Option {
	return func(p *ResilientPublisher) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}
