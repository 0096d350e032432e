package models

import "github.com/shopspring/decimal"

// ParticipantStake is one person's share of a BetRecord. PayoutDue stays zero
// until the bet settles.
type ParticipantStake struct {
	ID              string          `gorm:"primaryKey;size:36" json:"-"`
	BetID           string          `gorm:"size:36;index" json:"-"`
	ParticipantName string          `gorm:"size:128" json:"name"`
	Stake           decimal.Decimal `gorm:"type:decimal(14,4)" json:"stake"`
	PayoutDue       decimal.Decimal `gorm:"type:decimal(14,4)" json:"payout_due"`
	IsPaid          bool            `gorm:"default:false" json:"is_paid"`
}
