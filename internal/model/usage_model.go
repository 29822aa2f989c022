package model

import (
	"time"

	"github.com/google/uuid"
)

type UsageCounter struct {
	WorkspaceId          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Month                string    `gorm:"type:char(7);primaryKey"`
	MonthlyConversations int64     `gorm:"not null;default:0"`
	MonthlyUploads       int64     `gorm:"not null;default:0"`
	TotalStoredWords     int64     `gorm:"not null;default:0"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (UsageCounter) TableName() string {
	return "usage_counters"
}
