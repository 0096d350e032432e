package common

import (
	"strings"

	"github.com/STop211650/HyphynessTracker/models"
)

type statusRule struct {
	pattern string
	status  models.BetStatus
}

type typeRule struct {
	pattern string
	betType models.BetType
}

// Rules are checked in order against the lowercased input; the first
// substring hit wins.
var statusTable = []statusRule{
	{"win", models.StatusWon},
	{"won", models.StatusWon},
	{"loss", models.StatusLost},
	{"lost", models.StatusLost},
	{"void", models.StatusVoid},
	{"push", models.StatusPush},
	{"cashed", models.StatusWon},
	{"pending", models.StatusPending},
}

// Settled slips whose wording does not say how the bet ended. An early cash
// out pays an amount unrelated to to_win, so it is not treated as a win.
var outcomelessStatus = []string{"cash out", "cashed out", "cashout", "graded"}

var typeTable = []typeRule{
	{"single", models.TypeStraight},
	{"straight", models.TypeStraight},
	{"parlay", models.TypeParlay},
	{"teaser", models.TypeTeaser},
	{"round", models.TypeRoundRobin},
	{"robin", models.TypeRoundRobin},
	{"future", models.TypeFutures},
}

// ClassifyStatus maps a free-form status to a BetStatus. matched is false when
// the input hit no rule and the pending fallback was used.
func ClassifyStatus(raw string) (status models.BetStatus, matched bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower != "" {
		for _, rule := range statusTable {
			if strings.Contains(lower, rule.pattern) {
				return rule.status, true
			}
		}
	}
	return models.StatusPending, false
}

// SettledWithoutOutcome reports whether raw marks a slip as settled without
// naming the result.
func SettledWithoutOutcome(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, pattern := range outcomelessStatus {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// ClassifyType maps a free-form bet type to a BetType, falling back to straight.
func ClassifyType(raw string) (betType models.BetType, matched bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower != "" {
		for _, rule := range typeTable {
			if strings.Contains(lower, rule.pattern) {
				return rule.betType, true
			}
		}
	}
	return models.TypeStraight, false
}
