// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package broker publishes domain events (post.published, comment.created,
// user.registered, ...) to Kafka or, without brokers, to the log.
package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Event is one domain event. Key groups events of the same aggregate onto
// the same partition.
type Event struct {
	Topic      string         `json:"topic"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// NewEvent stamps an event with the current time.
func NewEvent(topic, key string, data map[string]any) Event {
	return Event{Topic: topic, Key: key, OccurredAt: time.Now().UTC(), Data: data}
}

// Encode returns the JSON message body.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Publish must not block request handling on
// broker availability.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the application log.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher returns a publisher that logs at INFO.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "domain event", "topic", e.Topic, "key", e.Key, "data", e.Data)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory. Tests use it to assert on the
// events a service emits.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Topics returns the topics of the recorded events in order.
func (r *Recorder) Topics() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Topic
	}
	return out
}

var (
	_ Publisher = (*LogPublisher)(nil)
	_ Publisher = (*Recorder)(nil)
)
