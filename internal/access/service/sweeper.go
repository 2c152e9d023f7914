package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/store"
)

// Sweeper periodically runs the entry maintenance sweep: expiring overdue
// expected entries and archiving everything whose credential lapsed more
// than the retention period ago.  It runs as a background goroutine and is
// safe to stop via its context or the Stop method.
//
// The sweep itself is idempotent, so overlapping or repeated runs (or an
// extra on-demand SweepOnce from a request path) are harmless.
type Sweeper struct {
	entries        store.EntryStore
	events         store.AccessEventStore
	retention      time.Duration
	auditRetention time.Duration
	interval       time.Duration
	logger         *zap.Logger
	cancel         context.CancelFunc
	done           chan struct{}
}

// DefaultAuditRetention is how long audit-log records are kept before the
// sweep prunes them.
const DefaultAuditRetention = 90 * 24 * time.Hour

// SweeperConfig holds the parameters for NewSweeper.
type SweeperConfig struct {
	// Retention is how long an entry outlives its credential's expiry
	// before archival.  0 uses the default (7 days).
	Retention time.Duration

	// AuditRetention is how long access-event records are kept.  0 uses
	// the default (90 days).
	AuditRetention time.Duration

	// Interval is how often the sweep runs.  Defaults to 1 hour.
	Interval time.Duration
}

// NewSweeper creates a sweeper but does not start it.  Call Start to begin
// the background loop.  A nil events store disables audit-log pruning.
func NewSweeper(entries store.EntryStore, events store.AccessEventStore, cfg SweeperConfig, logger *zap.Logger) *Sweeper {
	retention := cfg.Retention
	if retention <= 0 {
		retention = entry.DefaultRetention
	}
	auditRetention := cfg.AuditRetention
	if auditRetention <= 0 {
		auditRetention = DefaultAuditRetention
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	return &Sweeper{
		entries:        entries,
		events:         events,
		retention:      retention,
		auditRetention: auditRetention,
		interval:       interval,
		logger:         logger,
		done:           make(chan struct{}),
	}
}

// Start begins the background sweep loop.  It runs an immediate sweep on
// startup, then repeats on the configured interval.  The loop exits when
// ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	s.logger.Info("entry sweeper started",
		zap.Duration("retention", s.retention),
		zap.Duration("interval", s.interval))
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	// Run immediately on startup to clean up any backlog.
	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep pass.  A persistence error on one entry is
// logged and does not stop the rest of the pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := time.Now().UTC()

	candidates, err := s.entries.ListSweepable(ctx)
	if err != nil {
		s.logger.Error("entry sweep: list failed", zap.Error(err))
		return
	}

	var expired, archived int
	for _, e := range candidates {
		res := entry.Sweep(e, now, s.retention)
		if !res.Expired && !res.Archived {
			continue
		}
		if err := s.entries.UpdateEntry(ctx, res.Entry); err != nil {
			s.logger.Warn("entry sweep: update failed",
				zap.String("entry_id", e.ID),
				zap.Error(err))
			continue
		}
		if res.Expired {
			expired++
		}
		if res.Archived {
			archived++
		}
	}

	if expired > 0 || archived > 0 {
		s.logger.Info("entry sweep finished",
			zap.Int("expired", expired),
			zap.Int("archived", archived))
	}

	s.pruneAuditLog(ctx, now)
}

// pruneAuditLog drops access-event records older than the audit retention
// period.  Runs with each sweep pass; a prune failure is logged and the
// records simply wait for the next pass.
func (s *Sweeper) pruneAuditLog(ctx context.Context, now time.Time) {
	if s.events == nil {
		return
	}

	pruned, err := s.events.PruneOlderThan(ctx, now.Add(-s.auditRetention))
	if err != nil {
		s.logger.Warn("audit log prune failed", zap.Error(err))
		return
	}
	if pruned > 0 {
		s.logger.Info("audit log pruned", zap.Int64("removed", pruned))
	}
}
