package scheduler

import (
	"context"
	"time"

	"github.com/STop211650/HyphynessTracker/scheduler/scheduler_jobs"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const jobTimeout = time.Minute

// SetupCron starts the housekeeping jobs. The caller stops the returned cron
// on shutdown.
func SetupCron(sessions scheduler_jobs.SessionSweeper, bets scheduler_jobs.StalePendingLister, db *gorm.DB, log *zap.Logger) *cron.Cron {
	cronService := cron.New(cron.WithSeconds())

	_, err := cronService.AddFunc("0 */10 * * * *", func() {
		// Every 10 minutes
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := scheduler_jobs.SweepSessions(ctx, sessions, log); err != nil {
			log.Error("session sweep failed", zap.Error(err))
			common.LogError(db, "", "scheduler", err)
		}
	})
	if err != nil {
		log.Error("cannot schedule session sweep", zap.Error(err))
		common.LogError(db, "", "scheduler", err)
	}

	_, err = cronService.AddFunc("0 0 9 * * *", func() {
		// At 9am every day
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := scheduler_jobs.StalePendingDigest(ctx, bets, time.Now().UTC(), log); err != nil {
			log.Error("stale pending digest failed", zap.Error(err))
			common.LogError(db, "", "scheduler", err)
		}
	})
	if err != nil {
		log.Error("cannot schedule stale pending digest", zap.Error(err))
		common.LogError(db, "", "scheduler", err)
	}

	cronService.Start()
	return cronService
}
