// Package resilientpublisher implements the composed resilience policy,
// retry(breaker(timeout(transport.Publish))), that turns an unreliable
// pub/sub transport into a bounded-latency, categorized Outcome producer.
//
// Composition order matters: the circuit breaker sits between the
// per-attempt timeout and the outer retry loop so that a trip
// short-circuits remaining retries immediately, and so timeouts never
// count toward the breaker's consecutive-failure tally.
package resilientpublisher

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/brightleaf-data/sns-fanout/internal/backoff"
	"github.com/brightleaf-data/sns-fanout/outcome"
	"github.com/brightleaf-data/sns-fanout/transport"
)

// ResilientPublisher publishes a single message to a fixed topic, applying
// retry, circuit-breaking, and per-attempt timeout around an abstract
// transport. One ResilientPublisher owns exactly one circuit breaker.
type ResilientPublisher struct {
	transport transport.MessagePublisher
	topic     string
	logger    Logger
	recorder  Recorder

	maxRetries          int
	schedule            backoff.Schedule
	timeout             time.Duration
	breakerThreshold    int
	breakerOpenDuration time.Duration
	sleep               func(context.Context, time.Duration)

	br *breaker
}

// New builds a ResilientPublisher for the given topic and transport.
func New(t transport.MessagePublisher, topic string, opts ...Option) *ResilientPublisher {
	p := &ResilientPublisher{
		transport:           t,
		topic:               topic,
		logger:              noopLogger{},
		recorder:            noopRecorder{},
		maxRetries:          3,
		schedule:            backoff.Default(),
		timeout:             5 * time.Second,
		breakerThreshold:    10,
		breakerOpenDuration: 30 * time.Second,
		sleep:               sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.br = newBreaker(p.breakerThreshold, p.breakerOpenDuration, func(state string) {
		p.recorder.Count(context.Background(), "circuit_breaker_state_changes", 1, map[string]string{"state": state})
	})
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Publish sends message to the publisher's topic and returns a categorized
// Outcome. It never panics and never returns a raw transport error; every
// exit path goes through Outcome.
func (p *ResilientPublisher) Publish(ctx context.Context, message string) outcome.Outcome[string] {
	if strings.TrimSpace(message) == "" {
		cat := categorize(errInvalidInput)
		return outcome.Fail[string](cat.kind, cat.detail, nil)
	}

	spanCtx, endSpan := p.recorder.StartSpan(ctx, "SnsPublish", map[string]string{
		"messaging.system":      "aws-sns",
		"messaging.destination": p.topic,
		"sns.message_size":      strconv.Itoa(len(message)),
	})
	p.recorder.Count(spanCtx, "sns_publish_attempts", 1, nil)

	start := time.Now()
	id, err := p.executeWithRetry(spanCtx, message)
	duration := time.Since(start)
	p.recorder.RecordDuration(spanCtx, "sns_publish_duration", duration, nil)

	if err == nil {
		p.recorder.Count(spanCtx, "sns_publish_successes", 1, nil)
		endSpan(nil)
		return outcome.Ok(id)
	}

	cat := categorize(err)
	p.recorder.Count(spanCtx, "sns_publish_failures", 1, map[string]string{"error_type": cat.kind.String()})
	endSpan(err)
	return outcome.Fail[string](cat.kind, cat.detail, err)
}

// executeWithRetry runs the composed breaker(timeout(transport)) policy up
// to 1+maxRetries times against the configured backoff schedule.
func (p *ResilientPublisher) executeWithRetry(ctx context.Context, message string) (string, error) {
	for attempt := 1; ; attempt++ {
		id, err := p.attemptOnce(ctx, message)
		if err == nil {
			return id, nil
		}

		cat := categorize(err)
		if !cat.retriable || attempt > p.maxRetries {
			return "", err
		}

		p.recorder.Count(ctx, "sns_retries", 1, map[string]string{
			"error_type":     cat.kind.String(),
			"attempt_number": strconv.Itoa(attempt),
		})
		p.logger.Warn(ctx, "sns publish retry", "topic", p.topic, "attempt", attempt, "error_type", cat.kind.String(), "detail", cat.detail)

		delay := p.schedule.Delay(attempt)
		p.sleep(ctx, delay)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
}

// attemptOnce runs a single physical attempt through the circuit breaker
// and the per-attempt timeout, updating breaker state as a side effect.
func (p *ResilientPublisher) attemptOnce(ctx context.Context, message string) (string, error) {
	permitted, isProbe := p.br.allow()
	if !permitted {
		return "", errCircuitOpen
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := p.transport.Publish(attemptCtx, p.topic, message)
		done <- result{id: id, err: err}
	}()

	select {
	case <-attemptCtx.Done():
		p.recorder.Count(ctx, "sns_timeouts", 1, nil)
		if isProbe {
			p.br.recordRetriableFailure()
		}
		return "", errTimedOut
	case res := <-done:
		if res.err == nil {
			p.br.recordSuccess()
			return res.id, nil
		}
		if isProbe || categorize(res.err).retriable {
			p.br.recordRetriableFailure()
		}
		return "", res.err
	}
}

// IsHealthy performs a direct topic-metadata lookup, bypassing the
// resilience composition entirely.
func (p *ResilientPublisher) IsHealthy(ctx context.Context) bool {
	if err := p.transport.DescribeTopic(ctx, p.topic); err != nil {
		p.logger.Warn(ctx, "health probe failed", "topic", p.topic, "error", err)
		return false
	}
	return true
}
