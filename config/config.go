// Package config loads the fan-out publisher's configuration from a YAML
// defaults file, an optional .env file, and environment variable
// overrides, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the fan-out publisher.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	SNS        SNSConfig        `yaml:"sns"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Database   DatabaseConfig   `yaml:"database"`
}

// ServiceConfig identifies this process for logging and telemetry.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

// SNSConfig addresses the destination topic and the AWS region it lives in.
type SNSConfig struct {
	TopicARN string `yaml:"topic_arn"`
	Region   string `yaml:"region"`
}

// ResilienceConfig tunes the composed retry/breaker/timeout policy. A zero
// AttemptTimeout, BreakerThreshold or BreakerOpenDuration falls back to
// resilientpublisher's own default; a zero MaxRetries disables retries.
type ResilienceConfig struct {
	MaxRetries          int           `yaml:"max_retries"`
	AttemptTimeout      time.Duration `yaml:"attempt_timeout"`
	BreakerThreshold    int           `yaml:"breaker_threshold"`
	BreakerOpenDuration time.Duration `yaml:"breaker_open_duration"`
}

// TelemetryConfig points the otel pipeline at a collector.
type TelemetryConfig struct {
	OTLPEndpoint     string `yaml:"otlp_endpoint"`
	OTLPGRPCEndpoint string `yaml:"otlp_grpc_endpoint"`
}

// DatabaseConfig addresses the Postgres-backed record source.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "DataProcessingService",
			Environment: "Production",
		},
		SNS: SNSConfig{
			Region: "us-east-1",
		},
		Resilience: ResilienceConfig{
			MaxRetries:          3,
			AttemptTimeout:      5 * time.Second,
			BreakerThreshold:    10,
			BreakerOpenDuration: 30 * time.Second,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4318",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			Name:    "fanout",
			SSLMode: "disable",
		},
	}
}

// Load builds a Config by layering, in order of increasing precedence:
// built-in defaults, a YAML file at yamlPath (skipped if it doesn't
// exist), a .env file in the working directory (skipped if absent), and
// whatever environment variables are already set.
func Load(yamlPath string) (*Config, error) {
	cfg := defaults()

	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: failed to parse %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to read %s: %w", yamlPath, err)
		}
	}

	// godotenv.Load never overwrites variables already present in the
	// environment, so explicit env vars always win over the .env file.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if cfg.SNS.TopicARN == "" {
		return nil, fmt.Errorf("config: SNS topic ARN is required (set sns.topic_arn or FANOUT_SNS_TOPIC_ARN)")
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Service.Name = getEnv("FANOUT_SERVICE_NAME", cfg.Service.Name)
	cfg.Service.Environment = getEnv("FANOUT_ENVIRONMENT", cfg.Service.Environment)

	cfg.SNS.TopicARN = getEnv("FANOUT_SNS_TOPIC_ARN", cfg.SNS.TopicARN)
	cfg.SNS.Region = getEnv("FANOUT_SNS_REGION", cfg.SNS.Region)

	cfg.Resilience.MaxRetries = getEnvInt("FANOUT_MAX_RETRIES", cfg.Resilience.MaxRetries)
	cfg.Resilience.AttemptTimeout = getEnvDuration("FANOUT_ATTEMPT_TIMEOUT", cfg.Resilience.AttemptTimeout)
	cfg.Resilience.BreakerThreshold = getEnvInt("FANOUT_BREAKER_THRESHOLD", cfg.Resilience.BreakerThreshold)
	cfg.Resilience.BreakerOpenDuration = getEnvDuration("FANOUT_BREAKER_OPEN_DURATION", cfg.Resilience.BreakerOpenDuration)

	cfg.Telemetry.OTLPEndpoint = getEnv("FANOUT_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.OTLPGRPCEndpoint = getEnv("FANOUT_OTLP_GRPC_ENDPOINT", cfg.Telemetry.OTLPGRPCEndpoint)

	cfg.Database.Host = getEnv("FANOUT_DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("FANOUT_DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("FANOUT_DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("FANOUT_DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("FANOUT_DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("FANOUT_DB_SSL_MODE", cfg.Database.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// DSN returns the Postgres connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
