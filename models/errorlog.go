package models

import (
	"gorm.io/gorm"
)

type ErrorLog struct {
	gorm.Model
	ID      uint   `gorm:"primaryKey"`
	OwnerID string `gorm:"size:64"`
	Source  string `gorm:"size:64"`
	Message string
}
