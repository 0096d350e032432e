package models

import "github.com/shopspring/decimal"

type Winner struct {
	Name   string          `json:"name"`
	Profit decimal.Decimal `json:"profit"`
}

type Loser struct {
	Name string          `json:"name"`
	Loss decimal.Decimal `json:"loss"`
}

// SettlementSummary is what a settlement reports back to whoever triggered it.
type SettlementSummary struct {
	BetID        string          `json:"bet_id"`
	TicketNumber string          `json:"ticket_number"`
	Status       BetStatus       `json:"status"`
	Risk         decimal.Decimal `json:"risk"`
	TotalPayout  decimal.Decimal `json:"total_payout"`
	Winners      []Winner        `json:"winners"`
	Losers       []Loser         `json:"losers"`
}
