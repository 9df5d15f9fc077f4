// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the blog's business rules: post authoring, comments,
// search, accounts, profiles, site configuration and the sidebar widgets.
// Handlers stay thin and translate service errors into HTTP responses.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/olegiv/blango/internal/broker"
	"github.com/olegiv/blango/internal/metrics"
)

// Sentinel errors mapped to HTTP status codes by the handlers.
var (
	ErrNotFound           = errors.New("not found")
	ErrCommentsDisabled   = errors.New("comments are disabled")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrSpamDetected       = errors.New("submission rejected")
	ErrInvalidCredentials = errors.New("please enter a correct email and password")
	ErrAccountInactive    = errors.New("this account is inactive")
	ErrInvalidActivation  = errors.New("the activation key is invalid or has already been used")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrNotCommentable     = errors.New("this object does not accept comments")
	ErrNothingToUpload    = errors.New("no file uploaded")
)

// ValidationErrors maps form field names to messages. It is returned as an
// error when a submission fails validation.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has an error.
func (v ValidationErrors) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// Err returns v as an error, or nil when it is empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// AsValidationErrors extracts field errors from err.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }

// emitter publishes domain events and counts them. A nil publisher drops
// events.
type emitter struct {
	publisher broker.Publisher
	metrics   *metrics.Metrics
}

func (e emitter) emit(ctx context.Context, ev broker.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		// Publishing never fails the request.
		logWarn(ctx, "publishing domain event failed", "topic", ev.Topic, "error", err)
		return
	}
	if e.metrics != nil {
		e.metrics.EventsPublished.WithLabelValues(ev.Topic).Inc()
	}
}
