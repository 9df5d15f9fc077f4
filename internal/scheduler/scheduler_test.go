// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/blango/internal/testutil"
)

type publishCall struct{ after, upTo time.Time }

type fakePosts struct {
	calls []publishCall
	err   error
}

func (f *fakePosts) PublishDue(_ context.Context, after, upTo time.Time) (int, error) {
	f.calls = append(f.calls, publishCall{after, upTo})
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

type fakeAccounts struct{ age time.Duration }

func (f *fakeAccounts) PurgeStaleAccounts(_ context.Context, age time.Duration) (int64, error) {
	f.age = age
	return 2, nil
}

type fakeEvents struct{ age time.Duration }

func (f *fakeEvents) DeleteOlderThan(_ context.Context, age time.Duration) (int64, error) {
	f.age = age
	return 0, nil
}

type fakeStats struct{ calls int }

func (f *fakeStats) RefreshGauges(context.Context) error {
	f.calls++
	return nil
}

type fakeReloader struct{ calls int }

func (f *fakeReloader) Reload() error {
	f.calls++
	return nil
}

func TestNewDefaults(t *testing.T) {
	s := New(Deps{}, Options{}, nil)
	require.NotNil(t, s)
	assert.NotNil(t, s.cron)
	assert.NotNil(t, s.logger)
	assert.Equal(t, DefaultStaleAccountAge, s.opts.StaleAccountAge)
	assert.Equal(t, DefaultEventRetention, s.opts.EventRetention)
}

func TestStartRegistersJobs(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
		want []string
	}{
		{"no services", Deps{}, []string{}},
		{"posts only", Deps{Posts: &fakePosts{}}, []string{"publish-scheduled-posts"}},
		{
			"all services",
			Deps{Posts: &fakePosts{}, Stats: &fakeStats{}, Accounts: &fakeAccounts{}, Events: &fakeEvents{}, GeoIP: &fakeReloader{}},
			[]string{"prune-events", "publish-scheduled-posts", "purge-stale-accounts", "refresh-gauges", "reload-geoip"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.deps, Options{}, testutil.TestLogger())
			require.NoError(t, s.Start())
			defer s.Stop()

			names := []string{}
			for _, j := range s.Jobs() {
				names = append(names, j.Name)
				assert.False(t, j.NextRun.IsZero(), j.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestPublishDueAdvancesWindow(t *testing.T) {
	posts := &fakePosts{}
	s := New(Deps{Posts: posts}, Options{}, testutil.TestLogger())

	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.lastPublish = t0
	s.now = func() time.Time { return t0.Add(time.Minute) }
	require.NoError(t, s.publishDue(context.Background()))

	s.now = func() time.Time { return t0.Add(2 * time.Minute) }
	require.NoError(t, s.publishDue(context.Background()))

	require.Len(t, posts.calls, 2)
	assert.Equal(t, publishCall{t0, t0.Add(time.Minute)}, posts.calls[0])
	assert.Equal(t, publishCall{t0.Add(time.Minute), t0.Add(2 * time.Minute)}, posts.calls[1])
}

func TestPublishDueKeepsWindowOnError(t *testing.T) {
	posts := &fakePosts{err: errors.New("database is locked")}
	s := New(Deps{Posts: posts}, Options{}, testutil.TestLogger())

	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.lastPublish = t0
	s.now = func() time.Time { return t0.Add(time.Minute) }

	assert.Error(t, s.publishDue(context.Background()))
	assert.Equal(t, t0, s.lastPublish)
}

func TestCleanupJobsUseConfiguredAges(t *testing.T) {
	accounts := &fakeAccounts{}
	events := &fakeEvents{}
	s := New(Deps{Accounts: accounts, Events: events},
		Options{StaleAccountAge: 48 * time.Hour, EventRetention: 30 * 24 * time.Hour}, testutil.TestLogger())

	require.NoError(t, s.purgeStaleAccounts(context.Background()))
	require.NoError(t, s.pruneEvents(context.Background()))
	assert.Equal(t, 48*time.Hour, accounts.age)
	assert.Equal(t, 30*24*time.Hour, events.age)
}

func TestRunJobLogsFailures(t *testing.T) {
	s := New(Deps{}, Options{}, testutil.TestLogger())
	ran := false
	s.runJob(&job{name: "failing", run: func(context.Context) error {
		ran = true
		return errors.New("boom")
	}})
	assert.True(t, ran)
}

func TestGeoIPReloadJob(t *testing.T) {
	geo := &fakeReloader{}
	s := New(Deps{GeoIP: geo}, Options{}, testutil.TestLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	s.mu.Lock()
	require.Len(t, s.jobs, 1)
	j := s.jobs[0]
	s.mu.Unlock()

	assert.Equal(t, "@daily", j.schedule)
	s.runJob(j)
	assert.Equal(t, 1, geo.calls)
}
