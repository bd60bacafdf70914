// Command publisher wires the fan-out pipeline's concrete adapters
// together and drives Handle on a fixed interval, reloading nothing
// between invocations. It stands in for whatever serverless or cron
// trigger schedules the real deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/brightleaf-data/sns-fanout/config"
	"github.com/brightleaf-data/sns-fanout/datasource/postgres"
	"github.com/brightleaf-data/sns-fanout/fanout"
	"github.com/brightleaf-data/sns-fanout/logging"
	"github.com/brightleaf-data/sns-fanout/pipeline"
	"github.com/brightleaf-data/sns-fanout/resilientpublisher"
	"github.com/brightleaf-data/sns-fanout/telemetry"
	"github.com/brightleaf-data/sns-fanout/transform"
	snstransport "github.com/brightleaf-data/sns-fanout/transport/driver/sns"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	interval := flag.Duration("interval", time.Minute, "how often to run the pipeline")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fail to load config: %v\n", err)
		os.Exit(1)
	}

	logger, undoLogger := logging.New(cfg.Service.Name, cfg.Service.Environment)
	defer undoLogger()

	recorder, shutdownTelemetry, err := telemetry.New(
		telemetry.WithServiceName(cfg.Service.Name),
		telemetry.WithEnvironment(cfg.Service.Environment),
		telemetry.WithOTLPEndpoint(cfg.Telemetry.OTLPEndpoint),
		telemetry.WithOTLPGRPCEndpoint(cfg.Telemetry.OTLPGRPCEndpoint),
	)
	if err != nil {
		logger.Fatal("fail to init telemetry", zap.Error(err))
	}
	defer shutdownTelemetry(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport, err := snstransport.New(ctx, snstransport.Config{Region: cfg.SNS.Region})
	if err != nil {
		logger.Fatal("fail to init sns transport", zap.Error(err))
	}

	source, err := postgres.Connect(cfg.Database.DSN())
	if err != nil {
		logger.Fatal("fail to connect to postgres", zap.Error(err))
	}
	defer source.Close()

	logAdapter := logging.NewAdapter(logger)

	publisher := resilientpublisher.New(transport, cfg.SNS.TopicARN,
		resilientpublisher.WithLogger(logAdapter),
		resilientpublisher.WithRecorder(recorder),
		resilientpublisher.WithMaxRetries(cfg.Resilience.MaxRetries),
		resilientpublisher.WithTimeout(cfg.Resilience.AttemptTimeout),
		resilientpublisher.WithBreakerThreshold(cfg.Resilience.BreakerThreshold),
		resilientpublisher.WithBreakerOpenDuration(cfg.Resilience.BreakerOpenDuration),
	)

	engine := fanout.New(publisher, fanout.WithRecorder(recorder), fanout.WithLogger(logAdapter))

	driver := pipeline.New(source, transform.JSON, engine,
		pipeline.WithLogger(logAdapter),
		pipeline.WithRecorder(recorder),
	)

	if !publisher.IsHealthy(ctx) {
		logger.Warn("sns topic health probe failed at startup", zap.String("topic", cfg.SNS.TopicARN))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	logger.Info("publisher started", zap.Duration("interval", *interval), zap.String("topic", cfg.SNS.TopicARN))

	for {
		select {
		case <-sigChan:
			logger.Info("received interrupt signal, shutting down")
			return
		case <-ticker.C:
			stats, err := driver.Handle(ctx, nil)
			if err != nil {
				logger.Error("pipeline invocation failed", zap.Error(err))
				continue
			}
			logger.Info("pipeline invocation complete",
				zap.Int("success", stats.SuccessCount),
				zap.Int("failure", stats.FailureCount),
				zap.Int64("backpressure_ms", stats.BackpressureMS),
			)
		}
	}
}
