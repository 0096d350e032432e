package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/settlementService"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	canonicalOddsMigration  = "canonical_odds"
	payoutBackfillMigration = "settled_payout_backfill"
)

func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	if err := RunCanonicalOddsMigration(db, log); err != nil {
		return err
	}
	return RunPayoutBackfillMigration(db, log)
}

// RunCanonicalOddsMigration rewrites odds stored before normalization existed
// ("$100/$250", "150") into American form.
func RunCanonicalOddsMigration(db *gorm.DB, log *zap.Logger) error {
	done, err := migrationDone(db, canonicalOddsMigration)
	if err != nil || done {
		if done {
			log.Info("migration already executed, skipping", zap.String("migration", canonicalOddsMigration))
		}
		return err
	}

	log.Info("starting migration", zap.String("migration", canonicalOddsMigration))

	var records []models.BetRecord
	if err := db.Select("id", "odds", "risk", "to_win").Find(&records).Error; err != nil {
		return fmt.Errorf("error fetching bet records: %v", err)
	}

	fixed := 0
	for _, r := range records {
		if common.IsCanonicalOdds(r.Odds) {
			continue
		}
		odds := common.NormalizeOdds(r.Odds, r.Risk, r.ToWin)
		if odds == "" {
			log.Warn("odds could not be recovered", zap.String("bet_id", r.ID), zap.String("odds", r.Odds))
			continue
		}
		if err := db.Model(&models.BetRecord{}).Where("id = ?", r.ID).Update("odds", odds).Error; err != nil {
			log.Error("error updating odds", zap.String("bet_id", r.ID), zap.Error(err))
			continue
		}
		fixed++
	}

	if err := markMigration(db, canonicalOddsMigration); err != nil {
		return err
	}
	log.Info("migration completed", zap.String("migration", canonicalOddsMigration), zap.Int("updated", fixed))
	return nil
}

// RunPayoutBackfillMigration derives payouts for records that were stored as
// settled while every participant still showed zero due.
func RunPayoutBackfillMigration(db *gorm.DB, log *zap.Logger) error {
	done, err := migrationDone(db, payoutBackfillMigration)
	if err != nil || done {
		if done {
			log.Info("migration already executed, skipping", zap.String("migration", payoutBackfillMigration))
		}
		return err
	}

	log.Info("starting migration", zap.String("migration", payoutBackfillMigration))

	var records []models.BetRecord
	err = db.Preload("Participants").
		Where("status IN ?", []models.BetStatus{models.StatusWon, models.StatusPush, models.StatusVoid}).
		Find(&records).Error
	if err != nil {
		return fmt.Errorf("error fetching settled bets: %v", err)
	}

	backfilled := 0
	for _, r := range records {
		if !allZeroPayouts(r.Participants) {
			continue
		}
		status := r.Status
		r.Status = models.StatusPending
		payouts, _, err := settlementService.Calculate(r, status)
		if err != nil {
			log.Warn("payouts could not be derived", zap.String("bet_id", r.ID), zap.Error(err))
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			for _, p := range payouts {
				if err := tx.Model(&models.ParticipantStake{}).Where("id = ?", p.ID).Update("payout_due", p.PayoutDue).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Error("error writing payouts", zap.String("bet_id", r.ID), zap.Error(err))
			continue
		}
		backfilled++
	}

	if err := markMigration(db, payoutBackfillMigration); err != nil {
		return err
	}
	log.Info("migration completed", zap.String("migration", payoutBackfillMigration), zap.Int("updated", backfilled))
	return nil
}

func allZeroPayouts(participants []models.ParticipantStake) bool {
	for _, p := range participants {
		if !p.PayoutDue.IsZero() {
			return false
		}
	}
	return len(participants) > 0
}

func migrationDone(db *gorm.DB, name string) (bool, error) {
	var existing models.Migration
	err := db.Where("name = ?", name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking migration %s: %v", name, err)
	}
	return existing.ID != 0, nil
}

func markMigration(db *gorm.DB, name string) error {
	migration := models.Migration{
		Name:       name,
		ExecutedAt: time.Now(),
	}
	if err := db.Create(&migration).Error; err != nil {
		return fmt.Errorf("error marking migration as complete: %v", err)
	}
	return nil
}
