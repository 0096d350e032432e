package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	canonicalOdds = regexp.MustCompile(`^[+-]\d+$`)
	unsignedOdds  = regexp.MustCompile(`^\d+$`)
	hundred       = decimal.NewFromInt(100)
)

func IsCanonicalOdds(odds string) bool {
	return canonicalOdds.MatchString(odds)
}

func FormatOdds(odds int64) string {
	if odds > 0 {
		return fmt.Sprintf("+%d", odds)
	}
	return fmt.Sprintf("%d", odds)
}

// OddsFromRatio derives American odds from the profit/stake ratio of a slip.
// ok is false when risk or toWin cannot produce a ratio.
func OddsFromRatio(risk, toWin decimal.Decimal) (string, bool) {
	if !risk.IsPositive() || !toWin.IsPositive() {
		return "", false
	}

	switch toWin.Cmp(risk) {
	case 1:
		return FormatOdds(toWin.Mul(hundred).Div(risk).Round(0).IntPart()), true
	case -1:
		return FormatOdds(-risk.Mul(hundred).Div(toWin).Round(0).IntPart()), true
	default:
		return "+100", true
	}
}

// NormalizeOdds returns odds in canonical American form. Dollar or slash
// annotated values, and anything else unrecognizable, are recomputed from
// risk and toWin. An empty string is returned when nothing usable remains.
func NormalizeOdds(odds string, risk, toWin decimal.Decimal) string {
	trimmed := strings.ReplaceAll(strings.TrimSpace(odds), " ", "")

	switch {
	case trimmed == "":
	case strings.ContainsAny(trimmed, "$/"):
	case canonicalOdds.MatchString(trimmed):
		return trimmed
	case unsignedOdds.MatchString(trimmed):
		return "+" + trimmed
	case strings.EqualFold(trimmed, "even") || strings.EqualFold(trimmed, "evs"):
		return "+100"
	}

	derived, ok := OddsFromRatio(risk, toWin)
	if !ok {
		return ""
	}
	return derived
}
