package logger_adapter

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

// fluentPoster is the part of *fluent.Fluent the adapter uses.
type fluentPoster interface {
	Post(tag string, message interface{}) error
	Close() error
}

// FluentLoggerAdapter ships records to Fluent Bit, tagged by level.
type FluentLoggerAdapter struct {
	client   fluentPoster
	fields   port.Fields
	minLevel slog.Level
	now      func() time.Time
}

func NewFluentLoggerAdapter(client fluentPoster, minLevel slog.Leveler) (*FluentLoggerAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("fluent client cannot be nil")
	}

	level := slog.LevelInfo
	if minLevel != nil {
		level = minLevel.Level()
	}

	return &FluentLoggerAdapter{
		client:   client,
		fields:   port.Fields{},
		minLevel: level,
		now:      time.Now,
	}, nil
}

func mergeFields(base, extra port.Fields) port.Fields {
	merged := make(port.Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (a *FluentLoggerAdapter) post(level slog.Level, msg string, err error, fields port.Fields) {
	if level < a.minLevel {
		return
	}

	record := mergeFields(a.fields, fields)
	record["level"] = levelTag(level)
	record["message"] = msg
	record["timestamp"] = a.now().UTC().Format(time.RFC3339Nano)
	if err != nil {
		record["error"] = err.Error()
	}

	// delivery failures must not break the request that logged
	_ = a.client.Post(levelTag(level), record)
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

func (a *FluentLoggerAdapter) Info(msg string, fields port.Fields) {
	a.post(slog.LevelInfo, msg, nil, fields)
}

func (a *FluentLoggerAdapter) Warn(msg string, fields port.Fields) {
	a.post(slog.LevelWarn, msg, nil, fields)
}

func (a *FluentLoggerAdapter) Error(msg string, err error, fields port.Fields) {
	a.post(slog.LevelError, msg, err, fields)
}

func (a *FluentLoggerAdapter) Debug(msg string, fields port.Fields) {
	a.post(slog.LevelDebug, msg, nil, fields)
}

func (a *FluentLoggerAdapter) WithFields(fields port.Fields) port.LoggerPort {
	return &FluentLoggerAdapter{
		client:   a.client,
		fields:   mergeFields(a.fields, fields),
		minLevel: a.minLevel,
		now:      a.now,
	}
}

// Close flushes and closes the underlying client.
func (a *FluentLoggerAdapter) Close() error {
	return a.client.Close()
}
