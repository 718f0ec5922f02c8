package core

import (
	"context"
	"sync"
	"time"

	"github.com/coregx/sqlsink/internal/logger"
)

const maxPingTimeout = 5 * time.Second

// pinger is the part of *sql.DB the health checker needs.
type pinger interface {
	PingContext(ctx context.Context) error
}

// healthStatus is the outcome of the most recent ping.
type healthStatus struct {
	Checked  time.Time
	Err      error
	Failures int // consecutive failed pings
}

// Healthy reports a sink as healthy until a ping fails.
func (st healthStatus) Healthy() bool { return st.Err == nil }

// healthChecker pings the target database on a ticker so a sink that sits
// idle between change batches still notices a dropped connection.
type healthChecker struct {
	db       pinger
	logger   logger.Logger
	interval time.Duration
	timeout  time.Duration

	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.RWMutex
	last healthStatus
}

func newHealthChecker(db pinger, log logger.Logger, interval time.Duration) *healthChecker {
	return &healthChecker{
		db:       db,
		logger:   log,
		interval: interval,
		timeout:  min(interval, maxPingTimeout),
		done:     make(chan struct{}),
	}
}

func (h *healthChecker) start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.loop(ctx)
}

func (h *healthChecker) loop(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.check(ctx)
		}
	}
}

// check pings once and records the outcome.
func (h *healthChecker) check(ctx context.Context) healthStatus {
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	err := h.db.PingContext(pingCtx)
	cancel()

	h.mu.Lock()
	st := healthStatus{Checked: time.Now(), Err: err}
	if err != nil {
		st.Failures = h.last.Failures + 1
	}
	h.last = st
	h.mu.Unlock()

	if err != nil {
		h.logger.Warn("target database unreachable",
			"error", err,
			"consecutive_failures", st.Failures,
			"next_check", h.interval)
	} else {
		h.logger.Debug("target database reachable", "latency_budget", h.timeout)
	}
	return st
}

func (h *healthChecker) status() healthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// shutdown cancels any in-flight ping and waits for the loop to exit.
func (h *healthChecker) shutdown() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
}
