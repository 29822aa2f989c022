package memory

import (
	"context"
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/google/uuid"
)

type usageRepository struct {
	store *Store
}

func (r *usageRepository) Find(ctx context.Context, workspaceId uuid.UUID, month string) (*entity.UsageCounter, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("usage.Find"); err != nil {
		return nil, err
	}
	u, ok := s.usage[usageKey{workspaceId, month}]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *usageRepository) IncrementConversations(ctx context.Context, workspaceId uuid.UUID, month string, limit int64) (int64, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("usage.IncrementConversations"); err != nil {
		return 0, false, err
	}
	key := usageKey{workspaceId, month}
	u, ok := s.usage[key]
	if !ok {
		u = entity.UsageCounter{WorkspaceId: workspaceId, Month: month}
	}
	if ok && limit >= 0 && u.MonthlyConversations >= limit {
		return u.MonthlyConversations, false, nil
	}
	u.MonthlyConversations++
	u.UpdatedAt = time.Now()
	s.usage[key] = u
	return u.MonthlyConversations, true, nil
}

func (r *usageRepository) AdjustStorage(ctx context.Context, workspaceId uuid.UUID, month string, wordsDelta, uploadsDelta int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("usage.AdjustStorage"); err != nil {
		return err
	}
	key := usageKey{workspaceId, month}
	u, ok := s.usage[key]
	if !ok {
		u = entity.UsageCounter{WorkspaceId: workspaceId, Month: month}
	}
	u.TotalStoredWords = max(u.TotalStoredWords+wordsDelta, 0)
	u.MonthlyUploads = max(u.MonthlyUploads+uploadsDelta, 0)
	u.UpdatedAt = time.Now()
	s.usage[key] = u
	return nil
}
