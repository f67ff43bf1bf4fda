package jobs

import (
	"context"
	"time"
)

// Pruner deletes search logs created before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionProcessor removes search logs older than the retention window on
// every run.
type RetentionProcessor struct {
	pruner    Pruner
	retention time.Duration
	now       func() time.Time
}

func NewRetentionProcessor(pruner Pruner, retention time.Duration) *RetentionProcessor {
	return &RetentionProcessor{pruner: pruner, retention: retention, now: time.Now}
}

// ProcessJobs implements JobProcessor. A non-positive retention keeps
// everything.
func (p *RetentionProcessor) ProcessJobs(ctx context.Context) error {
	if p.retention <= 0 {
		return nil
	}
	_, err := p.pruner.Prune(ctx, p.now().UTC().Add(-p.retention))
	return err
}
