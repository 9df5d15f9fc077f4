// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics defines the Prometheus collectors exposed at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blango"

// Metrics owns a registry so tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	PostViews        prometheus.Counter
	CommentsCreated  prometheus.Counter
	PostsCreated     prometheus.Counter
	Registrations    prometheus.Counter
	Logins           *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	PostsTotal       prometheus.Gauge
	CommentsTotal    prometheus.Gauge
	UsersTotal       prometheus.Gauge
	ScheduledPublish prometheus.Counter
}

// New registers all collectors plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PostViews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "post_views_total",
			Help: "Counted post detail views.",
		}),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "comments_created_total",
			Help: "Comments created.",
		}),
		PostsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "posts_created_total",
			Help: "Posts created.",
		}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "registrations_total",
			Help: "Accounts registered.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_published_total",
			Help: "Domain events handed to the broker by topic.",
		}, []string{"topic"}),
		PostsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "posts", Help: "Posts in the database.",
		}),
		CommentsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "comments", Help: "Comments in the database.",
		}),
		UsersTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "users", Help: "Registered users.",
		}),
		ScheduledPublish: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "scheduled_posts_published_total",
			Help: "Scheduled posts that went live.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests, m.HTTPDuration,
		m.PostViews, m.CommentsCreated, m.PostsCreated, m.Registrations, m.Logins,
		m.EventsPublished, m.PostsTotal, m.CommentsTotal, m.UsersTotal, m.ScheduledPublish,
	)
	return m
}

// Registry returns the registry backing the handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency by chi route pattern, so
// /post/{slug} is one series instead of one per slug.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
