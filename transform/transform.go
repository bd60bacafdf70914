// Package transform converts fetched datasource.Record batches into the
// flat message strings the fan-out engine publishes.
package transform

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/brightleaf-data/sns-fanout/datasource"
)

// Func maps one batch of records to one batch of publishable messages. A
// Func must return exactly one message per input record, in the same
// order, so downstream outcome accounting stays aligned with the source
// batch.
type Func func(records []datasource.Record) ([]string, error)

// envelope is the default wire shape published to the topic: the original
// record's payload, tagged with a fresh message ID and a publish
// timestamp. Consumers downstream of the topic are expected to unwrap
// Payload themselves.
type envelope struct {
	MessageID   string          `json:"message_id"`
	RecordID    string          `json:"record_id"`
	PublishedAt time.Time       `json:"published_at"`
	Payload     json.RawMessage `json:"payload"`
}

// JSON is the default Func: it wraps every record's payload in an
// envelope carrying a fresh message ID, without altering the payload
// itself. Payloads that aren't valid JSON are embedded as a JSON string.
func JSON(records []datasource.Record) ([]string, error) {
	ids := lo.Map(records, func(r datasource.Record, _ int) string { return r.ID })
	if dupes := lo.FindDuplicates(ids); len(dupes) > 0 {
		return nil, fmt.Errorf("transform: duplicate record ids in batch: %v", dupes)
	}

	out := make([]string, len(records))
	for i, r := range records {
		payload := r.Payload
		if !json.Valid(payload) {
			encoded, err := json.Marshal(string(payload))
			if err != nil {
				return nil, fmt.Errorf("transform: encode non-JSON payload for record %s: %w", r.ID, err)
			}
			payload = encoded
		}

		env := envelope{
			MessageID:   uuid.NewString(),
			RecordID:    r.ID,
			PublishedAt: time.Now().UTC(),
			Payload:     payload,
		}
		encoded, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("transform: encode envelope for record %s: %w", r.ID, err)
		}
		out[i] = string(encoded)
	}
	return out, nil
}
