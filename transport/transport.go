// Package transport defines the abstract capability ResilientPublisher
// consumes to reach a remote pub/sub topic. Concrete transports (AWS SNS,
// an in-memory fake for tests) live under transport/driver.
package transport

import "context"

// MessagePublisher is the abstract transport capability ResilientPublisher
// depends on. Implementations must be safe for concurrent use: the
// FanOutEngine calls Publish from every worker goroutine.
type MessagePublisher interface {
	// Publish sends message to topic and returns the broker-assigned
	// message id on success. Errors are returned as-is; ResilientPublisher
	// is responsible for categorizing them.
	Publish(ctx context.Context, topic string, message string) (messageID string, err error)

	// DescribeTopic performs a lightweight metadata lookup used only by
	// the health probe. It is never part of the resilience composition.
	DescribeTopic(ctx context.Context, topic string) error
}
