package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BetStatus string

const (
	StatusPending BetStatus = "pending"
	StatusWon     BetStatus = "won"
	StatusLost    BetStatus = "lost"
	StatusPush    BetStatus = "push"
	StatusVoid    BetStatus = "void"
)

// IsTerminal reports whether the status is one a pending bet can settle into.
func (s BetStatus) IsTerminal() bool {
	switch s {
	case StatusWon, StatusLost, StatusPush, StatusVoid:
		return true
	}
	return false
}

func (s BetStatus) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

type BetType string

const (
	TypeStraight   BetType = "straight"
	TypeParlay     BetType = "parlay"
	TypeTeaser     BetType = "teaser"
	TypeRoundRobin BetType = "round_robin"
	TypeFutures    BetType = "futures"
)

// BetRecord is one wagering ticket. Records are append-only; the only mutation
// after creation is the single pending -> terminal settlement.
type BetRecord struct {
	ID            string             `gorm:"primaryKey;size:36" json:"id"`
	TicketNumber  string             `gorm:"size:128;index:idx_owner_ticket" json:"ticket_number"`
	Sportsbook    *string            `gorm:"size:128" json:"sportsbook"`
	Type          BetType            `gorm:"size:32" json:"type"`
	Odds          string             `gorm:"size:16" json:"odds"`
	Risk          decimal.Decimal    `gorm:"type:decimal(12,2)" json:"risk"`
	ToWin         decimal.Decimal    `gorm:"type:decimal(12,2)" json:"to_win"`
	Status        BetStatus          `gorm:"size:16;index" json:"status"`
	OwnerID       string             `gorm:"size:64;index:idx_owner_ticket" json:"owner_id"`
	WhoPaid       *string            `gorm:"size:128" json:"who_paid,omitempty"`
	RawExtraction datatypes.JSON     `json:"-"`
	CreatedAt     time.Time          `gorm:"index" json:"created_at"`
	SettledAt     *time.Time         `json:"settled_at"`
	Legs          []BetLeg           `gorm:"foreignKey:BetID" json:"legs"`
	Participants  []ParticipantStake `gorm:"foreignKey:BetID" json:"participants"`
}

// BetLeg is one selection of a multi-leg wager, kept in slip order.
type BetLeg struct {
	ID        string `gorm:"primaryKey;size:36" json:"-"`
	BetID     string `gorm:"size:36;index" json:"-"`
	Position  int    `json:"-"`
	Event     string `json:"event"`
	Market    string `gorm:"size:64" json:"market"`
	Selection string `json:"selection"`
	Odds      string `gorm:"size:16" json:"odds"`
}

func (r BetRecord) SportsbookName() string {
	if r.Sportsbook == nil {
		return ""
	}
	return *r.Sportsbook
}
