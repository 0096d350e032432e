package settlementService

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/metricsService"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is the part of the bet store the engine reads and writes.
type Ledger interface {
	Get(ctx context.Context, id string) (*models.BetRecord, error)
	ApplySettlement(ctx context.Context, id string, status models.BetStatus, settledAt time.Time, payouts []models.ParticipantStake) error
}

// Notifier is told about every successful settlement.
type Notifier interface {
	PublishSettlement(ctx context.Context, summary models.SettlementSummary) error
}

type Engine struct {
	ledger   Ledger
	notifier Notifier
	log      *zap.Logger
	metrics  *metricsService.Metrics
	now      func() time.Time
}

func NewEngine(ledger Ledger, notifier Notifier, log *zap.Logger, metrics *metricsService.Metrics) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{ledger: ledger, notifier: notifier, log: log, metrics: metrics, now: time.Now}
}

// Settle moves the record to status on behalf of actorID, who must own it.
func (e *Engine) Settle(ctx context.Context, recordID, actorID string, status models.BetStatus) (models.SettlementSummary, error) {
	return e.settle(ctx, recordID, actorID, status, "")
}

// SettleVerified is Settle with a ticket check: when both the screenshot's
// ticket and the record's ticket are known they must agree.
func (e *Engine) SettleVerified(ctx context.Context, recordID, actorID string, status models.BetStatus, ticketNumber string) (models.SettlementSummary, error) {
	return e.settle(ctx, recordID, actorID, status, ticketNumber)
}

func (e *Engine) settle(ctx context.Context, recordID, actorID string, status models.BetStatus, ticketNumber string) (models.SettlementSummary, error) {
	if !status.IsTerminal() {
		return models.SettlementSummary{}, common.ErrInvalidStatus
	}

	record, err := e.ledger.Get(ctx, recordID)
	if err != nil {
		return models.SettlementSummary{}, err
	}
	if record.OwnerID != actorID {
		return models.SettlementSummary{}, common.ErrForbidden
	}

	ticket := strings.TrimSpace(ticketNumber)
	if ticket != "" && record.TicketNumber != "" && ticket != record.TicketNumber {
		return models.SettlementSummary{}, fmt.Errorf("screenshot %s, bet %s: %w", ticket, record.TicketNumber, common.ErrTicketMismatch)
	}

	payouts, summary, err := Calculate(*record, status)
	if err != nil {
		return models.SettlementSummary{}, err
	}

	if err := e.ledger.ApplySettlement(ctx, record.ID, status, e.now().UTC(), payouts); err != nil {
		return models.SettlementSummary{}, err
	}

	e.metrics.Settled(string(status))
	e.log.Info("bet settled",
		zap.String("bet_id", record.ID),
		zap.String("owner_id", record.OwnerID),
		zap.String("status", string(status)),
		zap.String("total_payout", summary.TotalPayout.StringFixed(2)),
	)

	if e.notifier != nil {
		if err := e.notifier.PublishSettlement(ctx, summary); err != nil {
			e.log.Warn("settlement event not published", zap.String("bet_id", record.ID), zap.Error(err))
		}
	}
	return summary, nil
}

// Calculate derives every participant's payout for status without touching
// storage. record must still be pending.
func Calculate(record models.BetRecord, status models.BetStatus) ([]models.ParticipantStake, models.SettlementSummary, error) {
	if !status.IsTerminal() {
		return nil, models.SettlementSummary{}, common.ErrInvalidStatus
	}
	if record.Status != models.StatusPending {
		return nil, models.SettlementSummary{}, &common.AlreadySettledError{BetID: record.ID, Status: record.Status}
	}
	if !record.Risk.IsPositive() {
		return nil, models.SettlementSummary{}, fmt.Errorf("%w: risk must be greater than zero", common.ErrInvalidRecord)
	}

	summary := models.SettlementSummary{
		BetID:        record.ID,
		TicketNumber: record.TicketNumber,
		Status:       status,
		Risk:         record.Risk,
		TotalPayout:  decimal.Zero,
		Winners:      []models.Winner{},
		Losers:       []models.Loser{},
	}

	payouts := make([]models.ParticipantStake, 0, len(record.Participants))
	for _, p := range record.Participants {
		p.PayoutDue = payout(p.Stake, record, status)
		payouts = append(payouts, p)
		summary.TotalPayout = summary.TotalPayout.Add(p.PayoutDue)

		switch p.PayoutDue.Cmp(p.Stake) {
		case 1:
			summary.Winners = append(summary.Winners, models.Winner{Name: p.ParticipantName, Profit: p.PayoutDue.Sub(p.Stake)})
		case -1:
			summary.Losers = append(summary.Losers, models.Loser{Name: p.ParticipantName, Loss: p.Stake.Sub(p.PayoutDue)})
		}
	}

	return payouts, summary, nil
}

// payoutPlaces matches the payout_due column so the summary total is the sum
// of what gets stored.
const payoutPlaces = 4

func payout(stake decimal.Decimal, record models.BetRecord, status models.BetStatus) decimal.Decimal {
	switch status {
	case models.StatusWon:
		return stake.Mul(record.ToWin).Div(record.Risk).Round(payoutPlaces)
	case models.StatusPush, models.StatusVoid:
		return stake
	default:
		return decimal.Zero
	}
}
