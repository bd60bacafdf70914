package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightleaf-data/sns-fanout/config"
)

func clearFanoutEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FANOUT_SERVICE_NAME", "FANOUT_ENVIRONMENT", "FANOUT_SNS_TOPIC_ARN",
		"FANOUT_SNS_REGION", "FANOUT_MAX_RETRIES", "FANOUT_ATTEMPT_TIMEOUT",
		"FANOUT_BREAKER_THRESHOLD", "FANOUT_BREAKER_OPEN_DURATION",
		"FANOUT_OTLP_ENDPOINT", "FANOUT_OTLP_GRPC_ENDPOINT",
		"FANOUT_DB_HOST", "FANOUT_DB_PORT", "FANOUT_DB_USER",
		"FANOUT_DB_PASSWORD", "FANOUT_DB_NAME", "FANOUT_DB_SSL_MODE",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadFailsWithoutATopicARN(t *testing.T) {
	clearFanoutEnv(t)
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoadAppliesYAMLDefaultsThenEnvOverrides(t *testing.T) {
	clearFanoutEnv(t)
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
service:
  name: batch-publisher
  environment: staging
sns:
  topic_arn: arn:aws:sns:us-east-1:111122223333:orders
  region: us-west-2
resilience:
  max_retries: 5
`), 0o644))

	t.Setenv("FANOUT_SNS_REGION", "eu-west-1")

	cfg, err := config.Load(yamlPath)
	require.NoError(t, err)

	assert.Equal(t, "batch-publisher", cfg.Service.Name)
	assert.Equal(t, "staging", cfg.Service.Environment)
	assert.Equal(t, "arn:aws:sns:us-east-1:111122223333:orders", cfg.SNS.TopicARN)
	assert.Equal(t, "eu-west-1", cfg.SNS.Region, "env var must win over the yaml file")
	assert.Equal(t, 5, cfg.Resilience.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Resilience.BreakerOpenDuration, "unset fields keep their default")
}

func TestLoadToleratesAMissingYAMLFile(t *testing.T) {
	clearFanoutEnv(t)
	t.Setenv("FANOUT_SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:111122223333:orders")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "DataProcessingService", cfg.Service.Name)
}

func TestDatabaseConfigDSN(t *testing.T) {
	db := config.DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "fanout", Password: "secret",
		Name: "fanout", SSLMode: "require",
	}
	assert.Equal(t, "host=db.internal port=5432 user=fanout password=secret dbname=fanout sslmode=require", db.DSN())
}
