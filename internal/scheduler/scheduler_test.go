package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-wager-ledger/internal/fixtures"
	"github.com/radieske/sports-wager-ledger/internal/ledger"
	"github.com/radieske/sports-wager-ledger/internal/ledger/store/memory"
)

var kickoff = time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)

type countingTicker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingTicker) Tick(context.Context, time.Time) ([]ledger.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil, c.err
}

func (c *countingTicker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestEveryRunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	job := &Every{JobName: "x", Interval: time.Hour, Run: func(context.Context) {
		runs.Add(1)
		cancel()
	}}

	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
	if runs.Load() != 1 {
		t.Fatalf("expected one immediate run, got %d", runs.Load())
	}
}

func TestManagerWaitsForJobs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tk := &countingTicker{err: errors.New("disk full")}
	m := New(zap.NewNop())
	m.Register(NewLockJob(zap.NewNop(), tk, 10*time.Millisecond, nil))

	var stopped atomic.Bool
	m.Register(NewStreamJob(zap.NewNop(), "stream", func(ctx context.Context) error {
		<-ctx.Done()
		stopped.Store(true)
		return ctx.Err()
	}))

	m.Start(ctx)

	if !stopped.Load() {
		t.Fatal("stream job should have returned before Start")
	}
	if tk.count() < 2 {
		t.Fatalf("expected lock job to keep ticking after errors, got %d calls", tk.count())
	}
}

func TestLockJobLocksDueEvents(t *testing.T) {
	now := kickoff.Add(-time.Hour)
	l, err := ledger.Open(context.Background(), memory.New(), ledger.Options{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e, err := l.CreateEvent(context.Background(), ledger.EventInput{Home: "Lakers", Away: "Warriors", HomeOdds: -110, AwayOdds: 150, StartTime: kickoff})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	job := NewLockJob(zap.NewNop(), l, time.Hour, func() time.Time { return kickoff }).(*Every)
	job.Run(context.Background())

	got, err := l.Event(e.ID)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if !got.Locked {
		t.Fatal("event should be locked at start time")
	}
}

type staticSource struct{ list []fixtures.Fixture }

func (s staticSource) Name() string { return "static" }

func (s staticSource) Fetch(context.Context) ([]fixtures.Fixture, error) {
	return s.list, nil
}

func TestFetchJobName(t *testing.T) {
	l, err := ledger.Open(context.Background(), memory.New(), ledger.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fj := &fixtures.FetchJob{
		Log:      zap.NewNop(),
		Source:   staticSource{list: []fixtures.Fixture{{Home: "Bulls", Away: "Knicks", HomeOdds: 120, AwayOdds: -140, StartTime: kickoff}}},
		Ingester: &fixtures.Ingester{Log: zap.NewNop(), Ledger: l},
		Retry:    fixtures.NewRetryPolicy(1, 0),
	}
	job := NewFetchJob(fj, time.Hour)
	if job.Name() != "fixtures:static" {
		t.Fatalf("unexpected name %q", job.Name())
	}

	job.(*Every).Run(context.Background())
	if len(l.Events(false)) != 1 {
		t.Fatalf("expected fixture ingested on first run, got %d events", len(l.Events(false)))
	}
}
