package models

import "time"

// Migration marks a one-off data fix as done so it never runs twice.
type Migration struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"uniqueIndex;size:255"`
	ExecutedAt time.Time
}
