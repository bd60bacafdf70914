// Package inmem is an in-process fake of transport.MessagePublisher, used
// by tests and local development in place of a real SNS topic.
package inmem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/brightleaf-data/sns-fanout/transport"
)

// Transport records every published message per topic. It is safe for
// concurrent use by a fan-out worker pool.
type Transport struct {
	mu       sync.RWMutex
	messages map[string][]string
	missing  map[string]bool
	seq      int64
}

// New builds an empty in-memory transport.
func New() *Transport {
	return &Transport{
		messages: map[string][]string{},
		missing:  map[string]bool{},
	}
}

var _ transport.MessagePublisher = (*Transport)(nil)

// Publish appends message to topic's in-memory log and returns a
// monotonically increasing message ID.
func (t *Transport) Publish(ctx context.Context, topic, message string) (string, error) {
	if topic == "" {
		return "", errors.New("inmem: topic required")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages[topic] = append(t.messages[topic], message)
	id := atomic.AddInt64(&t.seq, 1)
	return fmt.Sprintf("inmem-%d", id), nil
}

// DescribeTopic fails when topic has been marked missing via MarkMissing,
// mimicking an SNS GetTopicAttributes call against a deleted topic.
func (t *Transport) DescribeTopic(ctx context.Context, topic string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.missing[topic] {
		return fmt.Errorf("inmem: topic %q not found", topic)
	}
	return nil
}

// MarkMissing makes subsequent DescribeTopic calls for topic fail, for
// exercising health-probe failure paths in tests.
func (t *Transport) MarkMissing(topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.missing[topic] = true
}

// Messages returns a copy of everything published to topic, in order.
func (t *Transport) Messages(topic string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.messages[topic]))
	copy(out, t.messages[topic])
	return out
}
