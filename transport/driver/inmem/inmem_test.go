package inmem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf-data/sns-fanout/transport/driver/inmem"
)

func TestPublishAppendsToTheTopicLog(t *testing.T) {
	tr := inmem.New()

	id1, err := tr.Publish(context.Background(), "orders", "first")
	require.NoError(t, err)
	id2, err := tr.Publish(context.Background(), "orders", "second")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, []string{"first", "second"}, tr.Messages("orders"))
}

func TestPublishRequiresATopic(t *testing.T) {
	tr := inmem.New()
	_, err := tr.Publish(context.Background(), "", "first")
	assert.Error(t, err)
}

func TestDescribeTopicFailsAfterMarkMissing(t *testing.T) {
	tr := inmem.New()
	assert.NoError(t, tr.DescribeTopic(context.Background(), "orders"))

	tr.MarkMissing("orders")
	assert.Error(t, tr.DescribeTopic(context.Background(), "orders"))
}
