// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	RoomCode   string `gorm:"index;not null"`
	WinnerID   string
	WinnerName string
	Rounds     int    `gorm:"default:0"`
	DurationMs int64  `gorm:"default:0"`
	Players    []byte `gorm:"type:jsonb;not null"` // marshalled []PlayerOutcome
}
