package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Sink accepts tracked events.
type Sink interface {
	Record(ctx context.Context, e *Event) error
}

// Sender is the queue publishing surface used by QueueSink.
type Sender interface {
	Send(ctx context.Context, messageBody string, attributes map[string]string) error
}

// QueueSink publishes events to a message queue for the worker to persist.
type QueueSink struct {
	sender Sender
}

func NewQueueSink(sender Sender) *QueueSink {
	return &QueueSink{sender: sender}
}

func (q *QueueSink) Record(ctx context.Context, e *Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return q.sender.Send(ctx, string(body), map[string]string{
		"event_type":  e.EventType,
		"lookup_type": e.LookupType,
	})
}

// LogSink writes events to a structured logger. Used when no queue is
// configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Record(ctx context.Context, e *Event) error {
	l.logger.InfoContext(ctx, "analytics event",
		"id", e.ID,
		"event_type", e.EventType,
		"lookup_type", e.LookupType,
		"outcome", e.Outcome(),
	)
	return nil
}
