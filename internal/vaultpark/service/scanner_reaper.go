package service

import (
	"context"
	"time"

	"github.com/Kushanz7/VaultPark-sub001/internal/logging"
	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/clock"
)

// ScannerReaper periodically evicts idle scanners from a pool.  It runs as
// a background goroutine and is safe to stop via its context or the Stop
// method.
//
// An idle TTL of 0 disables reaping entirely.
type ScannerReaper struct {
	pool     *ScannerPool
	idleTTL  time.Duration
	interval time.Duration
	clock    clock.Clock
	logger   logging.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// ReaperConfig holds the parameters for NewScannerReaper.
type ReaperConfig struct {
	// IdleTTLMinutes is how long an unused idle scanner is kept.
	// 0 means keep every scanner (reaper will not start).
	IdleTTLMinutes int

	// IntervalMinutes is how often the reaper runs.  Defaults to 5.
	IntervalMinutes int
}

// NewScannerReaper creates a reaper but does not start it.
// Call Start to begin the background loop.
func NewScannerReaper(pool *ScannerPool, cfg ReaperConfig, clk clock.Clock, logger logging.Logger) *ScannerReaper {
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if clk == nil {
		clk = clock.System{}
	}

	return &ScannerReaper{
		pool:     pool,
		idleTTL:  time.Duration(cfg.IdleTTLMinutes) * time.Minute,
		interval: interval,
		clock:    clk,
		logger:   logger.With("module", "scanner_reaper"),
		done:     make(chan struct{}),
	}
}

// Start begins the background loop.  The loop exits when ctx is cancelled
// or Stop is called.
func (r *ScannerReaper) Start(ctx context.Context) {
	if r.idleTTL <= 0 {
		r.logger.Info(ctx, "scanner reaper disabled", "idle_ttl", 0)
		close(r.done)
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)

	go r.loop(ctx)

	r.logger.Info(ctx, "scanner reaper started", "idle_ttl", r.idleTTL.String(), "interval", r.interval.String())
}

// Stop signals the reaper to exit and waits for it to finish.
func (r *ScannerReaper) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.done
}

func (r *ScannerReaper) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *ScannerReaper) reap(ctx context.Context) int {
	cutoff := r.clock.Now().Add(-r.idleTTL)
	n := r.pool.Reap(cutoff)
	if n > 0 {
		r.logger.Info(ctx, "reaped idle scanners", "count", n, "remaining", r.pool.Len())
	}
	return n
}
