// Package log provides structured logging for the forecasting pipeline on top of zerolog.
//
// Components obtain a named Logger from a LoggerProvider and attach key/value pairs:
//
//	logger := log.GetLoggerWithName("dicl").With(log.ComponentKey, "forecaster")
//	logger.Info("Prediction started", log.OperationKey, log.OperationPredict, log.SamplesKey, 128)
//
// GetLogger exposes the underlying *zerolog.Logger for callers that prefer the
// chained zerolog API.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Structured field keys.
const (
	OperationKey     = "operation"
	PhaseKey         = "phase"
	ModelNameKey     = "model_name"
	ComponentKey     = "component"
	SamplesKey       = "n_samples"
	FeaturesKey      = "n_features"
	ComponentsKey    = "n_components"
	ContextLengthKey = "context_length"
	HorizonKey       = "horizon"
	ModeKey          = "mode"
	PredsKey         = "n_predictions"
	DurationMsKey    = "duration_ms"
)

// Values for OperationKey and PhaseKey.
const (
	OperationFit              = "fit"
	OperationPredict          = "predict_single_step"
	OperationPredictMultiStep = "predict_multi_step"
	OperationMetrics          = "compute_metrics"

	PhaseTraining  = "training"
	PhaseInference = "inference"
	PhaseEvaluate  = "evaluation"
)

// Level is a logging level.
type Level = zerolog.Level

// Logger is the key/value logging interface used by all components.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// LoggerProvider hands out named loggers.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}

// ToLogLevel parses a level name, defaulting to info.
func ToLogLevel(level string) Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

type zerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to stderr.
func NewZerologProvider(level Level) LoggerProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter creates a provider writing to w.
func NewZerologProviderWithWriter(w io.Writer, level Level) LoggerProvider {
	return &zerologProvider{
		base: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{l: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{l: p.base.With().Str("logger", name).Logger()}
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(level)
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...interface{}) {
	emit(z.l.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...interface{}) {
	emit(z.l.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...interface{}) {
	emit(z.l.Warn(), msg, fields)
}

// Error logs at error level. A leading error value in fields is attached with Err.
func (z *zerologLogger) Error(msg string, fields ...interface{}) {
	ev := z.l.Error()
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	emit(ev, msg, fields)
}

func (z *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{l: z.l.With().Fields(pairs(fields)).Logger()}
}

func emit(ev *zerolog.Event, msg string, fields []interface{}) {
	if ev == nil {
		return
	}
	ev.Fields(pairs(fields)).Msg(msg)
}

// pairs turns a flat key/value list into a map; a dangling key is logged with a nil value.
func pairs(fields []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if i+1 < len(fields) {
			out[key] = fields[i+1]
		} else {
			out[key] = nil
		}
	}
	return out
}

var (
	globalMu       sync.RWMutex
	globalProvider = NewZerologProvider(zerolog.InfoLevel)
	globalLogger   = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// SetupLogger configures the package-level loggers. Use "console" as a level suffix
// ("debug,console") to get human readable output.
func SetupLogger(level string) {
	parts := strings.Split(level, ",")
	lvl := ToLogLevel(parts[0])

	var w io.Writer = os.Stderr
	if len(parts) > 1 && strings.TrimSpace(parts[1]) == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = NewZerologProviderWithWriter(w, lvl)
	globalLogger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// SetProvider replaces the package-level provider.
func SetProvider(p LoggerProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = p
}

// GetLogger returns the package-level zerolog logger.
func GetLogger() *zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	l := globalLogger
	return &l
}

// GetLoggerWithName returns a named Logger from the package-level provider.
func GetLoggerWithName(name string) Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalProvider.GetLoggerWithName(name)
}

// LogError logs err with its stack trace at error level.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	logger := GetLogger()
	logger.Error().Err(err).Str("stack", stackOf(err)).Msg(msg)
}

func stackOf(err error) string {
	return fmt.Sprintf("%+v", err)
}
