package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf-data/sns-fanout/datasource"
	"github.com/brightleaf-data/sns-fanout/fanout"
	"github.com/brightleaf-data/sns-fanout/pipeline"
)

type fakeSource struct {
	records []datasource.Record
	err     error
}

func (f fakeSource) FetchBatch(ctx context.Context, limit int) ([]datasource.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

type fakeEngine struct {
	stats    fanout.PublishStats
	received []string
}

func (f *fakeEngine) Run(ctx context.Context, messages []string) fanout.PublishStats {
	f.received = messages
	return f.stats
}

func TestHandleFetchesTransformsAndPublishes(t *testing.T) {
	src := fakeSource{records: []datasource.Record{
		{ID: "1", Payload: []byte(`{"a":1}`)},
		{ID: "2", Payload: []byte(`{"a":2}`)},
	}}
	engine := &fakeEngine{stats: fanout.PublishStats{SuccessCount: 2}}

	transformFn := func(records []datasource.Record) ([]string, error) {
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = r.ID
		}
		return out, nil
	}

	d := pipeline.New(src, transformFn, engine)

	stats, err := d.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SuccessCount)
	assert.Equal(t, []string{"1", "2"}, engine.received)
}

func TestHandlePropagatesADataSourceFault(t *testing.T) {
	src := fakeSource{err: errors.New("connection refused")}
	engine := &fakeEngine{}

	d := pipeline.New(src, func([]datasource.Record) ([]string, error) { return nil, nil }, engine)

	_, err := d.Handle(context.Background(), nil)
	assert.Error(t, err)
	assert.Nil(t, engine.received)
}

func TestHandlePropagatesATransformerFault(t *testing.T) {
	src := fakeSource{records: []datasource.Record{{ID: "1"}}}
	engine := &fakeEngine{}
	transformErr := errors.New("bad payload")

	d := pipeline.New(src, func([]datasource.Record) ([]string, error) { return nil, transformErr }, engine)

	_, err := d.Handle(context.Background(), nil)
	assert.ErrorIs(t, err, transformErr)
}

func TestHandleOnEmptyBatchHandsTheEngineAnEmptyBatch(t *testing.T) {
	src := fakeSource{records: nil}
	engine := &fakeEngine{}

	d := pipeline.New(src, func(records []datasource.Record) ([]string, error) { return []string{}, nil }, engine)

	stats, err := d.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, fanout.PublishStats{}, stats)
	assert.Equal(t, []string{}, engine.received)
}
