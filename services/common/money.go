package common

import "github.com/shopspring/decimal"

// CentTolerance is the largest stake/risk drift accepted when comparing sums.
var CentTolerance = decimal.NewFromFloat(0.01)

// StakesMatchRisk reports whether the stakes add up to risk within one cent.
func StakesMatchRisk(stakes []decimal.Decimal, risk decimal.Decimal) bool {
	return SumStakes(stakes).Sub(risk).Abs().LessThanOrEqual(CentTolerance)
}

func SumStakes(stakes []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range stakes {
		total = total.Add(s)
	}
	return total
}

func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
