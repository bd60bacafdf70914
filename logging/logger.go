// Package logging builds the process-wide zap logger and adapts it to the
// narrow Logger interfaces that resilientpublisher and the pipeline driver
// depend on.
package logging

import (
	"context"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func initLogger() (*zap.Logger, error) {
	logLevelEnv := os.Getenv("LOG_LEVEL")
	logLevelInt, err := strconv.Atoi(logLevelEnv)
	if err != nil {
		logLevelInt = int(zapcore.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(logLevelInt))
	cfg.EncoderConfig.CallerKey = "ln"
	cfg.EncoderConfig.FunctionKey = ""
	cfg.EncoderConfig.LevelKey = "severity"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}

	return cfg.Build()
}

// New builds the process-wide zap logger and returns it along with a
// teardown func that flushes buffered entries and restores the prior global
// logger. Failure to build the logger is fatal at startup.
func New(serviceName, environment string) (*zap.Logger, func()) {
	logger, err := initLogger()
	if err != nil {
		log.Fatalf("fail to init logger, error: %v", err)
	}
	logger = logger.With(zap.String("service", serviceName), zap.String("environment", environment))

	undo := zap.ReplaceGlobals(logger)

	return logger, func() {
		undo()
		_ = logger.Sync()
	}
}

// Adapter wraps a *zap.Logger with the ctx-first, key-value Debug/Info/
// Warn/Error shape that resilientpublisher.Logger, pipeline.Logger, and
// fanout.Logger expect.
type Adapter struct {
	log *zap.Logger
}

// NewAdapter wraps logger for use as a resilientpublisher.Logger or
// pipeline.Logger.
func NewAdapter(logger *zap.Logger) Adapter {
	return Adapter{log: logger}
}

func toFields(kv []any) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, kv[i+1]))
	}
	return fields
}

func (a Adapter) Debug(_ context.Context, msg string, kv ...any) { a.log.Debug(msg, toFields(kv)...) }
func (a Adapter) Info(_ context.Context, msg string, kv ...any)  { a.log.Info(msg, toFields(kv)...) }
func (a Adapter) Warn(_ context.Context, msg string, kv ...any)  { a.log.Warn(msg, toFields(kv)...) }
func (a Adapter) Error(_ context.Context, msg string, kv ...any) { a.log.Error(msg, toFields(kv)...) }
