package transform_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf-data/sns-fanout/datasource"
	"github.com/brightleaf-data/sns-fanout/transform"
)

func TestJSONWrapsEachRecordInAnEnvelope(t *testing.T) {
	records := []datasource.Record{
		{ID: "r1", Payload: []byte(`{"amount":10}`)},
		{ID: "r2", Payload: []byte(`{"amount":20}`)},
	}

	messages, err := transform.JSON(records)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(messages[0]), &env))
	assert.Equal(t, "r1", env["record_id"])
	assert.NotEmpty(t, env["message_id"])
	assert.NotEmpty(t, env["published_at"])
}

func TestJSONEmbedsNonJSONPayloadsAsAString(t *testing.T) {
	records := []datasource.Record{{ID: "r1", Payload: []byte("not json")}}

	messages, err := transform.JSON(records)
	require.NoError(t, err)

	var env struct {
		Payload string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(messages[0]), &env))
	assert.Equal(t, "not json", env.Payload)
}

func TestJSONRejectsDuplicateRecordIDs(t *testing.T) {
	records := []datasource.Record{
		{ID: "dup", Payload: []byte(`{}`)},
		{ID: "dup", Payload: []byte(`{}`)},
	}

	_, err := transform.JSON(records)
	assert.Error(t, err)
}

func TestJSONPreservesInputOrder(t *testing.T) {
	records := []datasource.Record{
		{ID: "a", Payload: []byte(`1`)},
		{ID: "b", Payload: []byte(`2`)},
		{ID: "c", Payload: []byte(`3`)},
	}

	messages, err := transform.JSON(records)
	require.NoError(t, err)

	for i, id := range []string{"a", "b", "c"} {
		var env struct {
			RecordID string `json:"record_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(messages[i]), &env))
		assert.Equal(t, id, env.RecordID)
	}
}
