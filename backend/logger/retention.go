package logger

import (
	"context"
	"log/slog"
	"time"
)

type usageLogPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneUsageLogs deletes usage log entries older than maxAge every interval
// until ctx is done. It runs one pass immediately.
func PruneUsageLogs(ctx context.Context, logs usageLogPruner, maxAge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cutoff := time.Now().Add(-maxAge)
		deleted, err := logs.DeleteBefore(ctx, cutoff)
		switch {
		case err != nil && ctx.Err() == nil:
			slog.Error("usage log pruning failed", "source", "retention", "error", err)
		case deleted > 0:
			slog.Info("pruned usage logs", "source", "retention", "deleted", deleted, "cutoff", cutoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
