package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/interviewace/simulation-engine/internal/simulation"
)

// Cleaner evicts sessions that have gone idle. Eviction is a normal
// end of session: the report is generated and archived before the
// session leaves memory.
type Cleaner struct {
	manager  *simulation.Manager
	idleTTL  time.Duration
	interval time.Duration
}

// NewCleaner creates a new eviction worker
func NewCleaner(manager *simulation.Manager, idleTTL, interval time.Duration) *Cleaner {
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		manager:  manager,
		idleTTL:  idleTTL,
		interval: interval,
	}
}

// Start begins the eviction worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the eviction worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("eviction worker started", "idle_ttl", c.idleTTL, "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.evict(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("eviction worker stopped")
			return
		case <-ticker.C:
			c.evict(ctx)
		}
	}
}

// evict ends every session idle longer than the TTL
func (c *Cleaner) evict(ctx context.Context) {
	slog.Debug("running eviction cycle")

	idle := c.manager.IdleSessionIDs(c.idleTTL)
	if len(idle) == 0 {
		slog.Debug("no idle sessions found")
		return
	}

	slog.Info("found idle sessions", "count", len(idle))

	for _, id := range idle {
		report, err := c.manager.End(ctx, id)
		if err != nil {
			// A turn arriving between the scan and End can remove the
			// session first; that is not a failure.
			if errors.Is(err, simulation.ErrSessionNotFound) {
				continue
			}
			slog.Error("failed to evict idle session", "error", err, "id", id)
			continue
		}

		slog.Info("idle session evicted",
			"id", id,
			"total_steps", report.TotalSteps,
		)
	}
}
