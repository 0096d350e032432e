package scheduler_jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type SessionSweeper interface {
	Sweep(ctx context.Context) int
}

// SweepSessions drops settlement slips nobody finished picking a match for.
func SweepSessions(ctx context.Context, store SessionSweeper, log *zap.Logger) (removed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered in SweepSessions: %v", r)
		}
	}()

	removed = store.Sweep(ctx)
	if removed > 0 {
		log.Info("expired settlement sessions swept", zap.Int("removed", removed))
	}
	return removed, nil
}
