// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic background jobs of the blog.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Default job settings.
const (
	DefaultStaleAccountAge = 7 * 24 * time.Hour
	DefaultEventRetention  = 90 * 24 * time.Hour
	jobTimeout             = 30 * time.Second
)

// PostPublisher announces posts whose publication time passed.
type PostPublisher interface {
	PublishDue(ctx context.Context, after, upTo time.Time) (int, error)
}

// GaugeRefresher recomputes the content gauges.
type GaugeRefresher interface {
	RefreshGauges(ctx context.Context) error
}

// AccountPurger deletes accounts that were never activated.
type AccountPurger interface {
	PurgeStaleAccounts(ctx context.Context, age time.Duration) (int64, error)
}

// EventPruner deletes old event log rows.
type EventPruner interface {
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// Reloader re-reads an external data file, such as the GeoIP database.
type Reloader interface {
	Reload() error
}

// Deps are the services the jobs operate on. Nil members disable their job.
type Deps struct {
	Posts    PostPublisher
	Stats    GaugeRefresher
	Accounts AccountPurger
	Events   EventPruner
	GeoIP    Reloader
}

// Options tune the jobs.
type Options struct {
	StaleAccountAge time.Duration
	EventRetention  time.Duration
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name     string
	Schedule string
	LastRun  time.Time
	NextRun  time.Time
}

type job struct {
	name     string
	schedule string
	entryID  cron.EntryID
	run      func(context.Context) error
}

// Scheduler handles scheduled tasks like announcing scheduled posts.
type Scheduler struct {
	deps   Deps
	opts   Options
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	jobs        []*job
	lastPublish time.Time
}

// New creates a new scheduler instance.
func New(deps Deps, opts Options, logger *slog.Logger) *Scheduler {
	if opts.StaleAccountAge <= 0 {
		opts.StaleAccountAge = DefaultStaleAccountAge
	}
	if opts.EventRetention <= 0 {
		opts.EventRetention = DefaultEventRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		deps:   deps,
		opts:   opts,
		cron:   cron.New(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.lastPublish = s.now()
	return s
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.deps.Posts != nil {
		if err := s.add("publish-scheduled-posts", "* * * * *", s.publishDue); err != nil {
			return err
		}
	}
	if s.deps.Stats != nil {
		if err := s.add("refresh-gauges", "* * * * *", s.deps.Stats.RefreshGauges); err != nil {
			return err
		}
	}
	if s.deps.Accounts != nil {
		if err := s.add("purge-stale-accounts", "@hourly", s.purgeStaleAccounts); err != nil {
			return err
		}
	}
	if s.deps.Events != nil {
		if err := s.add("prune-events", "@hourly", s.pruneEvents); err != nil {
			return err
		}
	}
	if s.deps.GeoIP != nil {
		reload := func(context.Context) error { return s.deps.GeoIP.Reload() }
		if err := s.add("reload-geoip", "@daily", reload); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs returns the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		result = append(result, JobInfo{
			Name:     j.name,
			Schedule: j.schedule,
			LastRun:  entry.Prev,
			NextRun:  entry.Next,
		})
	}
	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}

func (s *Scheduler) add(name, schedule string, run func(context.Context) error) error {
	j := &job{name: name, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() { s.runJob(j) })
	if err != nil {
		return err
	}
	j.entryID = id

	s.mu.Lock()
	s.jobs = append(s.jobs, j)
	s.mu.Unlock()
	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) runJob(j *job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := j.run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
		return
	}
	s.logger.Debug("scheduled job finished", "job", j.name, "duration", time.Since(start))
}

// publishDue announces posts that went live since the previous run. The
// window only advances after a successful run so nothing is skipped.
func (s *Scheduler) publishDue(ctx context.Context) error {
	s.mu.Lock()
	after := s.lastPublish
	s.mu.Unlock()

	upTo := s.now()
	n, err := s.deps.Posts.PublishDue(ctx, after, upTo)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastPublish = upTo
	s.mu.Unlock()
	if n > 0 {
		s.logger.Info("published scheduled posts", "count", n, "after", after, "up_to", upTo)
	}
	return nil
}

func (s *Scheduler) purgeStaleAccounts(ctx context.Context) error {
	n, err := s.deps.Accounts.PurgeStaleAccounts(ctx, s.opts.StaleAccountAge)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("purged stale accounts", "count", n)
	}
	return nil
}

func (s *Scheduler) pruneEvents(ctx context.Context) error {
	n, err := s.deps.Events.DeleteOlderThan(ctx, s.opts.EventRetention)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("pruned old events", "count", n)
	}
	return nil
}
