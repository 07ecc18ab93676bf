// Package observe carries execution events out of the engine.
//
// The engine reports every batch start, item completion and batch completion
// to a Sink injected at construction. Executors still write debug and warning
// lines (worker restarts, shutdown errors) through the engine's logger, but
// counting and per-item reporting go through the Sink only. Sinks are side
// channels: removing them changes nothing about the outcomes a batch returns.
package observe

import (
	"log/slog"
	"time"
)

// EventKind identifies what an Event describes
type EventKind string

const (
	// BatchStarted is recorded once before any item runs
	BatchStarted EventKind = "batch_started"
	// ItemFinished is recorded once per work item, success or failure
	ItemFinished EventKind = "item_finished"
	// BatchFinished is recorded once after every item has an outcome
	BatchFinished EventKind = "batch_finished"
)

// Event is a single observation emitted by the engine
type Event struct {
	Kind     EventKind
	BatchID  string
	Strategy string
	Time     time.Time

	// Item fields, set for ItemFinished
	ItemID   string
	Success  bool
	Err      error
	Duration time.Duration

	// Batch fields, set for BatchStarted and BatchFinished
	Items   int
	Workers int
	Failed  int
}

// Sink receives engine events. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ev Event)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ev Event)

// Record calls f(ev)
func (f SinkFunc) Record(ev Event) {
	f(ev)
}

// Nop discards every event
var Nop Sink = SinkFunc(func(Event) {})

type multiSink []Sink

func (m multiSink) Record(ev Event) {
	for _, s := range m {
		s.Record(ev)
	}
}

// Multi fans every event out to each non-nil sink in order
func Multi(sinks ...Sink) Sink {
	filtered := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return Nop
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return filtered
}

// LogSink writes events to a structured logger
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging through logger, or slog.Default() when nil
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record logs the event. Item failures are warnings, everything else is
// debug or info so a quiet run only shows batch boundaries and failures.
func (s *LogSink) Record(ev Event) {
	switch ev.Kind {
	case BatchStarted:
		s.logger.Info("starting batch",
			"batch_id", ev.BatchID,
			"strategy", ev.Strategy,
			"items", ev.Items,
			"workers", ev.Workers)
	case ItemFinished:
		if ev.Success {
			s.logger.Debug("item succeeded",
				"batch_id", ev.BatchID,
				"item", ev.ItemID,
				"duration", ev.Duration)
			return
		}
		s.logger.Warn("item failed",
			"batch_id", ev.BatchID,
			"item", ev.ItemID,
			"error", ev.Err,
			"duration", ev.Duration)
	case BatchFinished:
		s.logger.Info("batch completed",
			"batch_id", ev.BatchID,
			"strategy", ev.Strategy,
			"total", ev.Items,
			"successful", ev.Items-ev.Failed,
			"failed", ev.Failed,
			"duration", ev.Duration)
	}
}
