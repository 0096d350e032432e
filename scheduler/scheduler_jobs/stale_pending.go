package scheduler_jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"go.uber.org/zap"
)

// StaleAfter is how long a bet can stay pending before it shows up in the
// daily digest.
const StaleAfter = 7 * 24 * time.Hour

type StalePendingLister interface {
	StalePending(ctx context.Context, before time.Time) ([]models.BetRecord, error)
}

// StalePendingDigest logs every owner's bets that have been pending longer
// than StaleAfter, one line per owner.
func StalePendingDigest(ctx context.Context, bets StalePendingLister, now time.Time, log *zap.Logger) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered in StalePendingDigest: %v", r)
		}
	}()

	records, err := bets.StalePending(ctx, now.Add(-StaleAfter))
	if err != nil {
		return 0, err
	}

	byOwner := make(map[string][]string)
	var owners []string
	for _, r := range records {
		if _, seen := byOwner[r.OwnerID]; !seen {
			owners = append(owners, r.OwnerID)
		}
		byOwner[r.OwnerID] = append(byOwner[r.OwnerID], r.TicketNumber)
	}

	for _, owner := range owners {
		log.Info("stale pending bets",
			zap.String("owner_id", owner),
			zap.Int("count", len(byOwner[owner])),
			zap.Strings("ticket_numbers", byOwner[owner]),
		)
	}
	return len(records), nil
}
