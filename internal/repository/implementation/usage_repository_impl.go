package implementation

import (
	"context"
	"errors"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/mapper"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UsageMapper
}

func NewUsageRepository(db *gorm.DB) contract.UsageRepository {
	return &UsageRepositoryImpl{
		db:     db,
		mapper: mapper.NewUsageMapper(),
	}
}

func (r *UsageRepositoryImpl) Find(ctx context.Context, workspaceId uuid.UUID, month string) (*entity.UsageCounter, error) {
	var m model.UsageCounter
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND month = ?", workspaceId, month).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *UsageRepositoryImpl) IncrementConversations(ctx context.Context, workspaceId uuid.UUID, month string, limit int64) (int64, bool, error) {
	var rows []int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO usage_counters (workspace_id, month, monthly_conversations, monthly_uploads, total_stored_words, updated_at)
		VALUES (?, ?, 1, 0, 0, NOW())
		ON CONFLICT (workspace_id, month) DO UPDATE
		SET monthly_conversations = usage_counters.monthly_conversations + 1, updated_at = NOW()
		WHERE CAST(? AS BIGINT) < 0 OR usage_counters.monthly_conversations < CAST(? AS BIGINT)
		RETURNING monthly_conversations`, workspaceId, month, limit, limit).
		Scan(&rows).Error
	if err != nil {
		return 0, false, err
	}
	if len(rows) > 0 {
		return rows[0], true, nil
	}

	// the conditional update skipped the row, so the cap is reached
	counter, err := r.Find(ctx, workspaceId, month)
	if err != nil || counter == nil {
		return 0, false, err
	}
	return counter.MonthlyConversations, false, nil
}

func (r *UsageRepositoryImpl) AdjustStorage(ctx context.Context, workspaceId uuid.UUID, month string, wordsDelta, uploadsDelta int64) error {
	row := model.UsageCounter{
		WorkspaceId:      workspaceId,
		Month:            month,
		TotalStoredWords: max(wordsDelta, 0),
		MonthlyUploads:   max(uploadsDelta, 0),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_stored_words": gorm.Expr("GREATEST(usage_counters.total_stored_words + ?, 0)", wordsDelta),
			"monthly_uploads":    gorm.Expr("GREATEST(usage_counters.monthly_uploads + ?, 0)", uploadsDelta),
			"updated_at":         gorm.Expr("NOW()"),
		}),
	}).Create(&row).Error
}
