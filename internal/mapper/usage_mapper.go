package mapper

import (
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
)

type UsageMapper struct{}

func NewUsageMapper() *UsageMapper {
	return &UsageMapper{}
}

func (m *UsageMapper) ToEntity(u *model.UsageCounter) *entity.UsageCounter {
	if u == nil {
		return nil
	}
	return &entity.UsageCounter{
		WorkspaceId:          u.WorkspaceId,
		Month:                u.Month,
		MonthlyConversations: u.MonthlyConversations,
		MonthlyUploads:       u.MonthlyUploads,
		TotalStoredWords:     u.TotalStoredWords,
		UpdatedAt:            u.UpdatedAt,
	}
}
