// Package monitor periodically reports sessions whose report is stuck or
// was never started.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/lojf/pairsurvey/internal/metrics"
)

// StuckCounter is the store surface the monitor reads.
type StuckCounter interface {
	// CountStuckSessions counts sessions PROCESSING since before olderThan.
	CountStuckSessions(ctx context.Context, olderThan time.Time) (int64, error)
	// CountStalledSessions counts PENDING sessions whose participants all
	// completed before olderThan.
	CountStalledSessions(ctx context.Context, olderThan time.Time) (int64, error)
}

// Monitor only observes: it updates gauges and logs, and never changes a
// session's status.
type Monitor struct {
	store     StuckCounter
	interval  time.Duration
	threshold time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// Counts is the result of one pass; a field is -1 when its query failed.
type Counts struct {
	Stuck   int64
	Stalled int64
}

func New(store StuckCounter, interval, threshold time.Duration, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		store:     store,
		interval:  interval,
		threshold: threshold,
		log:       log.With("component", "monitor"),
		now:       time.Now,
	}
}

// Start runs the check loop on its own goroutine until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	go m.loop(ctx)
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one pass over both conditions.
func (m *Monitor) Check(ctx context.Context) Counts {
	cutoff := m.now().Add(-m.threshold)
	out := Counts{Stuck: -1, Stalled: -1}

	if n, err := m.store.CountStuckSessions(ctx, cutoff); err != nil {
		m.log.Error("stuck session check failed", "error", err)
	} else {
		out.Stuck = n
		metrics.StuckSessions.Set(float64(n))
		if n > 0 {
			m.log.Warn("sessions stuck in PROCESSING", "count", n, "threshold", m.threshold.String())
		}
	}

	if n, err := m.store.CountStalledSessions(ctx, cutoff); err != nil {
		m.log.Error("stalled session check failed", "error", err)
	} else {
		out.Stalled = n
		metrics.StalledSessions.Set(float64(n))
		if n > 0 {
			m.log.Warn("completed sessions never started report generation", "count", n, "threshold", m.threshold.String())
		}
	}
	return out
}
