// Package datasource defines the abstract batch record source the pipeline
// driver reads from before transforming and publishing each record.
package datasource

import "context"

// Record is one raw row pulled from a batch source, before transformation.
type Record struct {
	ID      string
	Payload []byte
}

// Source fetches a bounded batch of records for a single pipeline run.
// Implementations return as many records as are available up to limit;
// fewer than limit means the source is exhausted for this run.
type Source interface {
	FetchBatch(ctx context.Context, limit int) ([]Record, error)
}
