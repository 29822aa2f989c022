package entity

import (
	"time"

	"github.com/google/uuid"
)

// UsageCounter is the per-workspace, per-calendar-month accounting row.
type UsageCounter struct {
	WorkspaceId          uuid.UUID
	Month                string // YYYY-MM, UTC
	MonthlyConversations int64
	MonthlyUploads       int64
	TotalStoredWords     int64
	UpdatedAt            time.Time
}

// MonthKey returns the counter key for t.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
