package matchService

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/metricsService"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MaxMatches      = 5
	MinConfidence   = 60
	ExactConfidence = 100
	DefaultWindow   = 30 * 24 * time.Hour
)

const (
	pointsSportsbook = 20
	pointsType       = 20
	pointsOdds       = 20
	pointsRiskExact  = 25
	pointsRiskClose  = 15
	pointsWinExact   = 15
	pointsWinClose   = 10
	pointsLegCount   = 10
)

var (
	penny  = decimal.RequireFromString("0.01")
	dollar = decimal.NewFromInt(1)
)

// CandidatePool is the read side of the bet store the matcher searches.
type CandidatePool interface {
	PendingByTicket(ctx context.Context, ownerID, ticketNumber string) ([]models.BetRecord, error)
	PendingSince(ctx context.Context, ownerID string, since time.Time) ([]models.BetRecord, error)
}

// Match is one ranked candidate. Exact is set only for ticket number hits;
// a fuzzy score of 100 is still a guess.
type Match struct {
	RecordID   string           `json:"bet_id"`
	Confidence int              `json:"confidence"`
	Exact      bool             `json:"exact"`
	Record     models.BetRecord `json:"bet"`
}

type Matcher struct {
	pool    CandidatePool
	window  time.Duration
	now     func() time.Time
	log     *zap.Logger
	metrics *metricsService.Metrics
}

func NewMatcher(pool CandidatePool, window time.Duration, log *zap.Logger, metrics *metricsService.Metrics) *Matcher {
	if window <= 0 {
		window = DefaultWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{pool: pool, window: window, now: time.Now, log: log, metrics: metrics}
}

// FindMatches ranks the owner's pending records against a settlement. An
// exact ticket hit short-circuits fuzzy scoring entirely; otherwise recent
// records are scored and those at MinConfidence or above are kept. At most
// MaxMatches are returned, best first. ticketNumber overrides the
// settlement's own ticket when non-empty.
func (m *Matcher) FindMatches(ctx context.Context, settlement models.ParsedBet, ownerID, ticketNumber string) ([]Match, error) {
	ticket := strings.TrimSpace(ticketNumber)
	if ticket == "" {
		ticket = strings.TrimSpace(settlement.TicketNumber)
	}

	if ticket != "" {
		candidates, err := m.pool.PendingByTicket(ctx, ownerID, ticket)
		if err != nil {
			return nil, fmt.Errorf("exact ticket lookup: %w", err)
		}

		var matches []Match
		for _, c := range candidates {
			if c.Status != models.StatusPending || c.OwnerID != ownerID || c.TicketNumber != ticket {
				continue
			}
			matches = append(matches, Match{RecordID: c.ID, Confidence: ExactConfidence, Exact: true, Record: c})
		}
		if len(matches) > 0 {
			m.log.Debug("exact ticket match",
				zap.String("owner_id", ownerID),
				zap.String("ticket_number", ticket),
				zap.Int("matches", len(matches)),
			)
			return m.rank(matches), nil
		}
	}

	since := m.now().Add(-m.window)
	candidates, err := m.pool.PendingSince(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("recent pending lookup: %w", err)
	}

	var matches []Match
	for _, c := range candidates {
		if c.Status != models.StatusPending || c.OwnerID != ownerID || c.CreatedAt.Before(since) {
			continue
		}
		score := Score(settlement, c)
		if score < MinConfidence {
			continue
		}
		matches = append(matches, Match{RecordID: c.ID, Confidence: score, Record: c})
	}

	m.log.Debug("fuzzy match",
		zap.String("owner_id", ownerID),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
	)
	return m.rank(matches), nil
}

func (m *Matcher) rank(matches []Match) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Record.CreatedAt.After(matches[j].Record.CreatedAt)
	})
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}
	if matches == nil {
		matches = []Match{}
	}
	for _, match := range matches {
		m.metrics.MatchConfidence(match.Confidence)
	}
	return matches
}

// Score is the fuzzy similarity between a settlement and a pending record,
// capped at ExactConfidence.
func Score(settlement models.ParsedBet, record models.BetRecord) int {
	score := 0

	if settlement.Sportsbook != nil && record.Sportsbook != nil &&
		strings.EqualFold(*settlement.Sportsbook, *record.Sportsbook) {
		score += pointsSportsbook
	}
	if settlement.Type == record.Type {
		score += pointsType
	}
	if settlement.Odds == record.Odds {
		score += pointsOdds
	}

	riskDiff := settlement.Risk.Sub(record.Risk).Abs()
	switch {
	case riskDiff.LessThan(penny):
		score += pointsRiskExact
	case riskDiff.LessThan(dollar):
		score += pointsRiskClose
	}

	winDiff := settlement.ToWin.Sub(record.ToWin).Abs()
	switch {
	case winDiff.LessThan(penny):
		score += pointsWinExact
	case winDiff.LessThan(dollar):
		score += pointsWinClose
	}

	if settlement.Type == models.TypeParlay && record.Type == models.TypeParlay &&
		len(settlement.Legs) == len(record.Legs) {
		score += pointsLegCount
	}

	if score > ExactConfidence {
		score = ExactConfidence
	}
	return score
}
