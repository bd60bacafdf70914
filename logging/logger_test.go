package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/brightleaf-data/sns-fanout/logging"
)

func TestAdapterTranslatesKeyValuePairsIntoFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := logging.NewAdapter(zap.New(core))

	adapter.Warn(context.Background(), "sns publish retry", "topic", "orders", "attempt", 2)

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "sns publish retry", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "orders", fields["topic"])
	assert.Equal(t, int64(2), fields["attempt"])
}

func TestAdapterIgnoresATrailingUnpairedKey(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := logging.NewAdapter(zap.New(core))

	adapter.Info(context.Background(), "dangling key", "topic")

	assert.Empty(t, logs.All()[0].ContextMap())
}
