package importer

import (
	"context"
	"log/slog"
	"time"
)

// Pruner periodically removes import attempts older than the retention period.
type Pruner struct {
	history   *History
	logger    *slog.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewPruner creates a Pruner that drops attempts older than retention every interval.
func NewPruner(history *History, logger *slog.Logger, retention, interval time.Duration) *Pruner {
	return &Pruner{
		history:   history,
		logger:    logger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Start prunes immediately then repeats every interval until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	p.PruneOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce deletes expired attempts and logs the outcome.
func (p *Pruner) PruneOnce(ctx context.Context) {
	cutoff := p.now().Add(-p.retention)
	n, err := p.history.Prune(ctx, cutoff)
	if err != nil {
		p.logger.Error("history prune failed", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("history pruned", "removed", n, "cutoff", cutoff.Format(time.RFC3339))
	}
}
