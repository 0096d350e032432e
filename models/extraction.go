package models

import "github.com/shopspring/decimal"

// RawExtraction is the bet slip as returned by the screenshot extractor. Every
// field may be missing or malformed; it is only ever read by the ingest
// normalizer, which turns it into a ParsedBet.
type RawExtraction struct {
	Sportsbook   *string          `json:"sportsbook"`
	TicketNumber *string          `json:"ticket_number"`
	Type         *string          `json:"type"`
	Odds         *string          `json:"odds"`
	Risk         *decimal.Decimal `json:"risk"`
	ToWin        *decimal.Decimal `json:"to_win"`
	Status       *string          `json:"status"`
	Legs         []RawLeg         `json:"legs"`
}

type RawLeg struct {
	Event     *string `json:"event"`
	Market    *string `json:"market"`
	Selection *string `json:"selection"`
	Odds      *string `json:"odds"`
}

// ParsedBet is a normalized extraction: canonical odds, known status and type.
type ParsedBet struct {
	TicketNumber string          `json:"ticket_number"`
	Sportsbook   *string         `json:"sportsbook"`
	Type         BetType         `json:"type"`
	Odds         string          `json:"odds"`
	Risk         decimal.Decimal `json:"risk"`
	ToWin        decimal.Decimal `json:"to_win"`
	Status       BetStatus       `json:"status"`
	Legs         []BetLeg        `json:"legs"`
}

func (p ParsedBet) SportsbookName() string {
	if p.Sportsbook == nil {
		return ""
	}
	return *p.Sportsbook
}
