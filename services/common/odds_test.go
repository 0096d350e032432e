package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func assertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalizeOdds(t *testing.T) {
	tests := []struct {
		name     string
		odds     string
		risk     string
		toWin    string
		expected string
	}{
		{name: "canonical positive", odds: "+150", risk: "100", toWin: "150", expected: "+150"},
		{name: "canonical negative", odds: "-110", risk: "110", toWin: "100", expected: "-110"},
		{name: "unsigned gets plus", odds: "250", risk: "10", toWin: "25", expected: "+250"},
		{name: "dollar form recomputed as favourite", odds: "-$100/$290", risk: "290", toWin: "100", expected: "-290"},
		{name: "slash form recomputed as underdog", odds: "100/150", risk: "100", toWin: "150", expected: "+150"},
		{name: "dollar form at even money", odds: "$50", risk: "50", toWin: "50", expected: "+100"},
		{name: "missing odds computed from ratio", odds: "", risk: "360", toWin: "200", expected: "-180"},
		{name: "even keyword", odds: "EVEN", risk: "20", toWin: "20", expected: "+100"},
		{name: "decimal odds recomputed", odds: "2.50", risk: "40", toWin: "60", expected: "+150"},
		{name: "unrecoverable", odds: "$?", risk: "0", toWin: "0", expected: ""},
		{name: "inner whitespace", odds: " + 120 ", risk: "100", toWin: "120", expected: "+120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeOdds(tt.odds, dec(tt.risk), dec(tt.toWin))
			assertEqual(t, tt.expected, got, tt.name)
			if got != "" && !IsCanonicalOdds(got) {
				t.Errorf("%s: %q is not canonical", tt.name, got)
			}
		})
	}
}

func TestOddsFromRatio(t *testing.T) {
	odds, ok := OddsFromRatio(dec("110"), dec("100"))
	assertEqual(t, true, ok, "ratio ok")
	assertEqual(t, "-110", odds, "favourite")

	odds, ok = OddsFromRatio(dec("100"), dec("333.33"))
	assertEqual(t, true, ok, "ratio ok")
	assertEqual(t, "+333", odds, "underdog rounds")

	_, ok = OddsFromRatio(dec("0"), dec("100"))
	assertEqual(t, false, ok, "zero risk")
}

func TestStakesMatchRisk(t *testing.T) {
	tests := []struct {
		name   string
		stakes []string
		risk   string
		want   bool
	}{
		{name: "exact", stakes: []string{"50", "30"}, risk: "80", want: true},
		{name: "one cent over", stakes: []string{"50", "30.01"}, risk: "80", want: true},
		{name: "two cents under", stakes: []string{"50", "29.98"}, risk: "80", want: false},
		{name: "thirds", stakes: []string{"33.33", "33.33", "33.33"}, risk: "100", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stakes []decimal.Decimal
			for _, s := range tt.stakes {
				stakes = append(stakes, dec(s))
			}
			assertEqual(t, tt.want, StakesMatchRisk(stakes, dec(tt.risk)), tt.name)
		})
	}
}
