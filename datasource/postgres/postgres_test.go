package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightleaf-data/sns-fanout/datasource/postgres"
)

func TestConnectRejectsAnEmptyDSN(t *testing.T) {
	_, err := postgres.Connect("")
	assert.Error(t, err)
}
