package reconcileService

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/matchService"
	"github.com/STop211650/HyphynessTracker/services/metricsService"
	"github.com/STop211650/HyphynessTracker/services/settlementService"
	"github.com/STop211650/HyphynessTracker/services/stakeService"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Kind string

const (
	// NeedsStakes means no pending record applies; the caller collects
	// participant stakes and calls Create.
	NeedsStakes Kind = "needs_stakes"
	// Settled means an unambiguous match was settled automatically.
	Settled Kind = "settled"
	// NeedsSelection means a person has to pick from Matches or decline.
	NeedsSelection Kind = "needs_selection"
)

type Outcome struct {
	Kind    Kind                      `json:"kind"`
	Reason  string                    `json:"reason,omitempty"`
	Bet     models.ParsedBet          `json:"bet"`
	Matches []matchService.Match      `json:"matches,omitempty"`
	Summary *models.SettlementSummary `json:"summary,omitempty"`
}

type Normalizer interface {
	Normalize(raw models.RawExtraction) (models.ParsedBet, error)
}

type Matcher interface {
	FindMatches(ctx context.Context, settlement models.ParsedBet, ownerID, ticketNumber string) ([]matchService.Match, error)
}

type Settler interface {
	Settle(ctx context.Context, recordID, actorID string, status models.BetStatus) (models.SettlementSummary, error)
}

type Recorder interface {
	Create(ctx context.Context, record *models.BetRecord) error
}

type Reconciler struct {
	normalizer Normalizer
	matcher    Matcher
	settler    Settler
	recorder   Recorder
	log        *zap.Logger
	metrics    *metricsService.Metrics
	now        func() time.Time
}

func NewReconciler(normalizer Normalizer, matcher Matcher, settler Settler, recorder Recorder, log *zap.Logger, metrics *metricsService.Metrics) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		normalizer: normalizer,
		matcher:    matcher,
		settler:    settler,
		recorder:   recorder,
		log:        log,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Reconcile normalizes an extracted slip and decides what happens to it.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID string, raw models.RawExtraction) (Outcome, error) {
	bet, err := r.normalizer.Normalize(raw)
	if err != nil {
		return Outcome{}, err
	}
	return r.ReconcileParsed(ctx, ownerID, bet)
}

// ReconcileParsed runs the match step for an already normalized slip.
func (r *Reconciler) ReconcileParsed(ctx context.Context, ownerID string, bet models.ParsedBet) (Outcome, error) {
	return r.ReconcileTicket(ctx, ownerID, bet, "")
}

// ReconcileTicket is ReconcileParsed with a ticket number that overrides the
// one read from the slip. Only a single exact ticket hit is settled without
// asking; a shared ticket number or any fuzzy match goes back to the user.
func (r *Reconciler) ReconcileTicket(ctx context.Context, ownerID string, bet models.ParsedBet, ticketNumber string) (Outcome, error) {
	if bet.Status == models.StatusPending {
		return r.outcome(Outcome{Kind: NeedsStakes, Reason: "new pending bet", Bet: bet}), nil
	}

	matches, err := r.matcher.FindMatches(ctx, bet, ownerID, ticketNumber)
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case len(matches) == 0:
		return r.outcome(Outcome{Kind: NeedsStakes, Reason: "no pending bet matched", Bet: bet}), nil

	case len(matches) == 1 && matches[0].Exact:
		summary, err := r.settler.Settle(ctx, matches[0].RecordID, ownerID, bet.Status)
		if err != nil {
			return Outcome{}, fmt.Errorf("auto settling %s: %w", matches[0].RecordID, err)
		}
		return r.outcome(Outcome{Kind: Settled, Bet: bet, Summary: &summary}), nil

	default:
		return r.outcome(Outcome{Kind: NeedsSelection, Bet: bet, Matches: matches}), nil
	}
}

// Select settles the record the user picked from a match list.
func (r *Reconciler) Select(ctx context.Context, ownerID, recordID string, status models.BetStatus) (models.SettlementSummary, error) {
	return r.settler.Settle(ctx, recordID, ownerID, status)
}

type CreateRequest struct {
	OwnerID string
	Bet     models.ParsedBet
	Stakes  string
	WhoPaid string
	Raw     *models.RawExtraction
}

// Create records a new bet. Stake text that fails to parse blocks creation
// with every problem listed. A slip that is already settled is stored in its
// terminal state with payouts derived the same way a settlement would.
func (r *Reconciler) Create(ctx context.Context, req CreateRequest) (*models.BetRecord, error) {
	risk := req.Bet.Risk
	parsed := stakeService.Parse(req.Stakes, &risk)
	if !parsed.Valid() {
		return nil, &common.ValidationError{Errors: parsed.Errors}
	}

	record := &models.BetRecord{
		TicketNumber: req.Bet.TicketNumber,
		Sportsbook:   req.Bet.Sportsbook,
		Type:         req.Bet.Type,
		Odds:         req.Bet.Odds,
		Risk:         req.Bet.Risk,
		ToWin:        req.Bet.ToWin,
		Status:       models.StatusPending,
		OwnerID:      req.OwnerID,
		Legs:         append([]models.BetLeg(nil), req.Bet.Legs...),
		CreatedAt:    r.now().UTC(),
	}
	if who := strings.TrimSpace(req.WhoPaid); who != "" {
		record.WhoPaid = &who
	}
	if req.Raw != nil {
		if encoded, err := json.Marshal(req.Raw); err == nil {
			record.RawExtraction = datatypes.JSON(encoded)
		}
	}
	for _, p := range parsed.Participants {
		record.Participants = append(record.Participants, models.ParticipantStake{
			ParticipantName: p.Name,
			Stake:           p.Stake,
		})
	}

	if req.Bet.Status.IsTerminal() {
		payouts, _, err := settlementService.Calculate(*record, req.Bet.Status)
		if err != nil {
			return nil, err
		}
		settledAt := record.CreatedAt
		record.Participants = payouts
		record.Status = req.Bet.Status
		record.SettledAt = &settledAt
	}

	if err := r.recorder.Create(ctx, record); err != nil {
		return nil, err
	}
	r.metrics.BetCreated(string(record.Status))
	return record, nil
}

func (r *Reconciler) outcome(o Outcome) Outcome {
	r.metrics.ReconcileOutcome(string(o.Kind))
	r.log.Info("settlement reconciled",
		zap.String("outcome", string(o.Kind)),
		zap.String("ticket_number", o.Bet.TicketNumber),
		zap.Int("matches", len(o.Matches)),
	)
	return o
}
