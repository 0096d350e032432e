package ingestService

import (
	"fmt"
	"strings"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/metricsService"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Normalizer is the only place the permissive extractor shape is read. It
// produces a ParsedBet with canonical odds and a known status and type.
type Normalizer struct {
	log     *zap.Logger
	metrics *metricsService.Metrics
}

func NewNormalizer(log *zap.Logger, metrics *metricsService.Metrics) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{log: log, metrics: metrics}
}

func (n *Normalizer) Normalize(raw models.RawExtraction) (models.ParsedBet, error) {
	if raw.Risk == nil || !raw.Risk.IsPositive() {
		return models.ParsedBet{}, fmt.Errorf("%w: risk amount missing", common.ErrExtraction)
	}
	if raw.ToWin == nil || raw.ToWin.IsNegative() {
		return models.ParsedBet{}, fmt.Errorf("%w: to-win amount missing", common.ErrExtraction)
	}

	bet := models.ParsedBet{
		TicketNumber: strings.TrimSpace(deref(raw.TicketNumber)),
		Risk:         *raw.Risk,
		ToWin:        *raw.ToWin,
	}
	if book := strings.TrimSpace(deref(raw.Sportsbook)); book != "" {
		bet.Sportsbook = &book
	}

	if common.SettledWithoutOutcome(deref(raw.Status)) {
		return models.ParsedBet{}, fmt.Errorf("%w: status %q does not say whether the bet won or lost", common.ErrExtraction, deref(raw.Status))
	}
	status, matched := common.ClassifyStatus(deref(raw.Status))
	if !matched {
		n.fallback("status", deref(raw.Status), string(status), bet.TicketNumber)
	}
	bet.Status = status

	betType, matched := common.ClassifyType(deref(raw.Type))
	if !matched {
		n.fallback("type", deref(raw.Type), string(betType), bet.TicketNumber)
	}
	bet.Type = betType

	bet.Odds = common.NormalizeOdds(deref(raw.Odds), bet.Risk, bet.ToWin)
	if bet.Odds == "" {
		return models.ParsedBet{}, fmt.Errorf("%w: odds %q could not be recovered", common.ErrExtraction, deref(raw.Odds))
	}
	if bet.Odds != strings.TrimSpace(deref(raw.Odds)) {
		n.log.Debug("odds normalized",
			zap.String("ticket_number", bet.TicketNumber),
			zap.String("raw", deref(raw.Odds)),
			zap.String("odds", bet.Odds),
		)
	}

	bet.Legs = make([]models.BetLeg, 0, len(raw.Legs))
	for i, leg := range raw.Legs {
		// Leg prices cannot be derived from the slip totals, so anything
		// that is not already American odds is dropped.
		odds := common.NormalizeOdds(deref(leg.Odds), decimal.Zero, decimal.Zero)
		bet.Legs = append(bet.Legs, models.BetLeg{
			Position:  i,
			Event:     strings.TrimSpace(deref(leg.Event)),
			Market:    strings.TrimSpace(deref(leg.Market)),
			Selection: strings.TrimSpace(deref(leg.Selection)),
			Odds:      odds,
		})
	}

	return bet, nil
}

func (n *Normalizer) fallback(field, raw, value, ticket string) {
	n.metrics.ClassificationFallback(field)
	n.log.Warn("classification fallback",
		zap.String("field", field),
		zap.String("raw", raw),
		zap.String("value", value),
		zap.String("ticket_number", ticket),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
