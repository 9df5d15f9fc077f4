// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	k "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to a single topic. The event type travels in
// the "topic" header and in the JSON body.
type KafkaPublisher struct {
	w *k.Writer
}

// NewKafkaPublisher creates an async writer; delivery errors are logged by
// the writer's completion callback.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &k.Writer{
		Addr:                   k.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &k.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           k.RequireOne,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []k.Message, err error) {
			if err != nil {
				slog.Warn("kafka delivery failed", "error", err, "messages", len(messages), "category", "system")
			}
		},
	}
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	body, err := e.Encode()
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return p.w.WriteMessages(ctx, k.Message{
		Key:     []byte(e.Key),
		Value:   body,
		Time:    e.OccurredAt,
		Headers: []k.Header{{Key: "topic", Value: []byte(e.Topic)}},
	})
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
