// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package broker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Webhook delivery settings.
const (
	WebhookMaxAttempts    = 5
	WebhookInitialBackoff = time.Second
	WebhookMaxBackoff     = time.Minute
	webhookQueueSize      = 256
	webhookTimeout        = 10 * time.Second
	webhookUserAgent      = "Blango-Webhook/1.0"
)

// Webhook request headers.
const (
	HeaderSignature = "X-Blango-Signature"
	HeaderEvent     = "X-Blango-Event"
)

// Errors returned by WebhookPublisher.Publish.
var (
	ErrQueueFull       = errors.New("webhook queue is full")
	ErrPublisherClosed = errors.New("webhook publisher closed")
)

// errPermanent marks a response that must not be retried.
var errPermanent = errors.New("permanent webhook failure")

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches payload under secret.
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(payload, secret)))
}

// WebhookPublisher POSTs every event as signed JSON to one URL. Deliveries
// run on a background goroutine and are retried with exponential backoff
// on network errors, 5xx, 408 and 429 until Close is called.
type WebhookPublisher struct {
	url     string
	secret  string
	client  *http.Client
	logger  *slog.Logger
	backoff time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewWebhookPublisher starts the delivery worker.
func NewWebhookPublisher(url, secret string, logger *slog.Logger) *WebhookPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &WebhookPublisher{
		url:     url,
		secret:  secret,
		client:  &http.Client{Timeout: webhookTimeout},
		logger:  logger,
		backoff: WebhookInitialBackoff,
		queue:   make(chan Event, webhookQueueSize),
		stop:    make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Publish queues the event without waiting for delivery.
func (p *WebhookPublisher) Publish(_ context.Context, e Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and abandons pending retries. Events still
// queued get a single attempt before Close returns.
func (p *WebhookPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.stop)
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

func (p *WebhookPublisher) run() {
	defer p.wg.Done()
	for e := range p.queue {
		p.deliver(e)
	}
}

func (p *WebhookPublisher) deliver(e Event) {
	body, err := e.Encode()
	if err != nil {
		p.logger.Error("webhook payload encoding failed", "error", err, "topic", e.Topic)
		return
	}

	for attempt := 1; attempt <= WebhookMaxAttempts; attempt++ {
		err = p.post(e.Topic, body)
		if err == nil {
			p.logger.Debug("webhook delivered", "topic", e.Topic, "attempt", attempt)
			return
		}
		if errors.Is(err, errPermanent) || attempt == WebhookMaxAttempts {
			break
		}
		if !p.wait(backoffFor(p.backoff, attempt)) {
			p.logger.Warn("webhook retries abandoned on shutdown", "topic", e.Topic, "error", err, "attempts", attempt, "category", "system")
			return
		}
	}
	p.logger.Warn("webhook delivery failed", "topic", e.Topic, "error", err, "category", "system")
}

// wait sleeps for d and reports false when Close interrupted it.
func (p *WebhookPublisher) wait(d time.Duration) bool {
	select {
	case <-p.stop:
		return false
	default:
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.stop:
		return false
	}
}

func (p *WebhookPublisher) post(topic string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)
	req.Header.Set(HeaderEvent, topic)
	if p.secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+Sign(body, p.secret))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10*1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: HTTP %d", errPermanent, resp.StatusCode)
	default:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

// backoffFor doubles base per attempt, capped at WebhookMaxBackoff.
func backoffFor(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base << (attempt - 1)
	if d > WebhookMaxBackoff || d <= 0 {
		return WebhookMaxBackoff
	}
	return d
}

var _ Publisher = (*WebhookPublisher)(nil)

// Multi fans every event out to several publishers.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
