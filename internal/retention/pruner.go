// Package retention periodically removes old summary history.
package retention

import (
	"context"
	"log/slog"
	"time"
)

// Store is the subset of storage the pruner needs.
type Store interface {
	PruneSummaries(ctx context.Context, before time.Time) (int64, error)
}

// Pruner deletes summaries older than a maximum age on a fixed tick.
type Pruner struct {
	store  Store
	maxAge time.Duration
	log    *slog.Logger
	tick   time.Duration
	now    func() time.Time
}

// New creates a Pruner. A zero maxAge disables pruning.
func New(store Store, maxAge time.Duration, log *slog.Logger) *Pruner {
	return &Pruner{
		store:  store,
		maxAge: maxAge,
		log:    log,
		tick:   1 * time.Hour,
		now:    time.Now,
	}
}

// SetTickInterval overrides the default 1-hour prune interval.
func (p *Pruner) SetTickInterval(d time.Duration) {
	p.tick = d
}

// Run prunes immediately and then on every tick, blocking until ctx is cancelled.
func (p *Pruner) Run(ctx context.Context) {
	if p.maxAge <= 0 {
		p.log.Info("summary retention disabled")
		return
	}

	p.prune(ctx)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := p.now().Add(-p.maxAge)
	n, err := p.store.PruneSummaries(ctx, cutoff)
	if err != nil {
		p.log.Error("prune summaries", "cutoff", cutoff, "error", err)
		return
	}
	if n > 0 {
		p.log.Info("pruned summaries", "count", n, "cutoff", cutoff)
	}
}
