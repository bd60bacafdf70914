package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightleaf-data/sns-fanout/telemetry"
)

func TestNewRequiresAnEndpoint(t *testing.T) {
	_, _, err := telemetry.New(telemetry.WithServiceName("sns-fanout"))
	assert.Error(t, err)
}

func TestNewBuildsARecorderGivenAnHTTPEndpoint(t *testing.T) {
	r, shutdown, err := telemetry.New(
		telemetry.WithServiceName("sns-fanout"),
		telemetry.WithOTLPEndpoint("localhost:4318"),
		telemetry.WithEnvironment("test"),
	)
	assert.NoError(t, err)
	assert.NotNil(t, r)
	assert.NotNil(t, shutdown)
}
